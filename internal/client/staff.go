package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// GetStaff implements schoolnet.RosterClient.GetStaff.
func (c *Client) GetStaff(ctx context.Context, staff schoolnet.Ref, opts *schoolnet.ListOptions) (schoolnet.Record, error) {
	staffID, err := staff.Resolve(schoolnet.RefStaff)
	if err != nil {
		return nil, err
	}

	opts = opts.Clone().WithQuery("expand", constants.ExpandIdentifier)

	payload, err := c.apiGet(ctx, "staff/"+url.PathEscape(staffID), opts)
	if err != nil {
		return nil, fmt.Errorf("getting staff %s: %w", staffID, err)
	}

	return single(payload), nil
}

// GetStaffSections implements schoolnet.RosterClient.GetStaffSections.
func (c *Client) GetStaffSections(ctx context.Context, staff schoolnet.Ref) ([]schoolnet.Record, error) {
	staffID, err := staff.Resolve(schoolnet.RefStaff)
	if err != nil {
		return nil, err
	}

	payload, err := c.apiGet(ctx, "staff/"+url.PathEscape(staffID)+"/staffSectionAssignments", nil)
	if err != nil {
		return nil, fmt.Errorf("listing section assignments for staff %s: %w", staffID, err)
	}

	return payload.Records(), nil
}
