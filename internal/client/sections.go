package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// GetSections implements schoolnet.RosterClient.GetSections.
func (c *Client) GetSections(ctx context.Context, school schoolnet.Ref, opts *schoolnet.ListOptions) ([]schoolnet.Record, error) {
	schoolID, err := school.Resolve(schoolnet.RefSchool)
	if err != nil {
		return nil, err
	}

	payload, err := c.apiGet(ctx, "schools/"+url.PathEscape(schoolID)+"/sections", opts)
	if err != nil {
		return nil, fmt.Errorf("listing sections for school %s: %w", schoolID, err)
	}

	return payload.Records(), nil
}

// GetSection implements schoolnet.RosterClient.GetSection. Assignments,
// course and schedule are expanded inline.
func (c *Client) GetSection(ctx context.Context, section schoolnet.Ref) (schoolnet.Record, error) {
	sectionID, err := section.Resolve(schoolnet.RefSection)
	if err != nil {
		return nil, err
	}

	opts := schoolnet.NewListOptions().WithQuery("expand", constants.ExpandSection)

	payload, err := c.apiGet(ctx, "sections/"+url.PathEscape(sectionID), opts)
	if err != nil {
		return nil, fmt.Errorf("getting section %s: %w", sectionID, err)
	}

	return single(payload), nil
}

// GetStudents implements schoolnet.RosterClient.GetStudents.
func (c *Client) GetStudents(ctx context.Context, section schoolnet.Ref, opts *schoolnet.ListOptions) ([]schoolnet.Record, error) {
	sectionID, err := section.Resolve(schoolnet.RefSection)
	if err != nil {
		return nil, err
	}

	opts = opts.Clone().WithQuery("expand", constants.ExpandIdentifier)

	payload, err := c.apiGet(ctx, "sections/"+url.PathEscape(sectionID)+"/students", opts)
	if err != nil {
		return nil, fmt.Errorf("listing students for section %s: %w", sectionID, err)
	}

	return payload.Records(), nil
}
