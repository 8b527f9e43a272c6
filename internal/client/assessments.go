package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gradecam/schoolnet-client/internal/constants"
	"github.com/gradecam/schoolnet-client/pkg/schoolnet"
)

// GetAssessments implements schoolnet.AssessmentClient.GetAssessments.
// Only scheduled, in-progress or completed multiple-choice and true/false
// assessments are listed, and entries without an instanceId are dropped.
func (c *Client) GetAssessments(ctx context.Context, opts *schoolnet.AssessmentsOptions) ([]schoolnet.Record, error) {
	if opts == nil {
		opts = &schoolnet.AssessmentsOptions{}
	}

	filter := constants.AssessmentFilter
	if !opts.ModifiedSince.IsZero() {
		filter = "modifiedsince==" + opts.ModifiedSince.Format(constants.ModifiedSinceLayout) + ";" + filter
	}

	listOpts := schoolnet.NewListOptions().WithQuery("filter", filter)
	listOpts.Limit = opts.Limit
	listOpts.Offset = opts.Offset

	payload, err := c.apiGet(ctx, "assessments", listOpts)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}

	records := payload.Records()
	assessments := make([]schoolnet.Record, 0, len(records))

	for _, record := range records {
		if record.String("instanceId") != "" {
			assessments = append(assessments, record)
		}
	}

	return assessments, nil
}

// GetAssessment implements schoolnet.AssessmentClient.GetAssessment.
func (c *Client) GetAssessment(ctx context.Context, assessment schoolnet.Ref) (schoolnet.Record, error) {
	assessmentID, err := assessment.Resolve(schoolnet.RefAssessment)
	if err != nil {
		return nil, err
	}

	opts := schoolnet.NewListOptions().WithQuery("expand", constants.ExpandAssessment)

	payload, err := c.apiGet(ctx, "assessments/"+url.PathEscape(assessmentID), opts)
	if err != nil {
		return nil, fmt.Errorf("getting assessment %s: %w", assessmentID, err)
	}

	return single(payload), nil
}

// PutStudentAssessment implements schoolnet.AssessmentClient.PutStudentAssessment.
// The write is attempted once; the outcome is reported in the result.
func (c *Client) PutStudentAssessment(ctx context.Context, studentAssessment schoolnet.Record) *schoolnet.WriteResult {
	assessmentID := studentAssessment.String("assessmentId")
	if assessmentID == "" {
		c.logger.Error("putStudentAssessment: invalid assessment", map[string]interface{}{
			"record": studentAssessment,
		})

		return &schoolnet.WriteResult{
			Success: false,
			Record:  studentAssessment,
			Err:     schoolnet.ErrMissingAssessmentID,
		}
	}

	path := "assessments/" + url.PathEscape(assessmentID) + "/studentAssessments"

	_, err := c.apiPut(ctx, path, studentAssessment)
	if err != nil {
		c.logger.Warn("putStudentAssessment failed", map[string]interface{}{
			"assessmentId": assessmentID,
			"error":        err.Error(),
		})

		return &schoolnet.WriteResult{
			Success: false,
			Record:  studentAssessment,
			Err:     fmt.Errorf("writing student assessment: %w", err),
		}
	}

	return &schoolnet.WriteResult{Success: true, Record: studentAssessment}
}
