package clients

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
)

const practiceService = "practice service"

// PracticeClient reads placement summaries from the practice service.
type PracticeClient struct {
	client *resty.Client
}

func NewPracticeClient(baseURL string, timeout time.Duration) *PracticeClient {
	return &PracticeClient{client: newRestyClient(baseURL, timeout)}
}

func (p *PracticeClient) PlacementSummary(ctx context.Context, placementID uint) (*contracts.PlacementSummary, error) {
	r, err := authorized(p.client)
	if err != nil {
		return nil, apperror.External(practiceService, err)
	}

	var envelope contracts.Envelope[contracts.PlacementSummary]
	resp, err := r.SetContext(ctx).
		SetPathParam("id", strconv.FormatUint(uint64(placementID), 10)).
		SetResult(&envelope).
		Get("/internal/placements/{id}/summary")
	if err := checkResponse(practiceService, resp, err); err != nil {
		return nil, err
	}
	if envelope.Data.PlacementID == 0 {
		return nil, apperror.External(practiceService, errors.New("response carries no placement"))
	}
	return &envelope.Data, nil
}
