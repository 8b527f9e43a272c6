package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// GetDistricts implements schoolnet.RosterClient.GetDistricts.
func (c *Client) GetDistricts(ctx context.Context) ([]schoolnet.Record, error) {
	payload, err := c.apiGet(ctx, "districts", nil)
	if err != nil {
		return nil, fmt.Errorf("listing districts: %w", err)
	}

	return payload.Records(), nil
}

// GetSchools implements schoolnet.RosterClient.GetSchools.
func (c *Client) GetSchools(ctx context.Context, district schoolnet.Ref, opts *schoolnet.ListOptions) ([]schoolnet.Record, error) {
	districtID, err := district.Resolve(schoolnet.RefDistrict)
	if err != nil {
		return nil, err
	}

	payload, err := c.apiGet(ctx, "districts/"+url.PathEscape(districtID)+"/schools", opts)
	if err != nil {
		return nil, fmt.Errorf("listing schools for district %s: %w", districtID, err)
	}

	return payload.Records(), nil
}

// GetSchool implements schoolnet.RosterClient.GetSchool.
func (c *Client) GetSchool(ctx context.Context, school schoolnet.Ref, opts *schoolnet.ListOptions) (schoolnet.Record, error) {
	schoolID, err := school.Resolve(schoolnet.RefSchool)
	if err != nil {
		return nil, err
	}

	payload, err := c.apiGet(ctx, "schools/"+url.PathEscape(schoolID), opts)
	if err != nil {
		return nil, fmt.Errorf("getting school %s: %w", schoolID, err)
	}

	return single(payload), nil
}
