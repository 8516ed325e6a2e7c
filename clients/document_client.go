package clients

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
)

const documentService = "document service"

// DocumentClient sends certificate generation requests to the document service.
type DocumentClient struct {
	client *resty.Client
}

func NewDocumentClient(baseURL string, timeout time.Duration) *DocumentClient {
	return &DocumentClient{client: newRestyClient(baseURL, timeout)}
}

func (d *DocumentClient) RequestCertificate(ctx context.Context, req contracts.GenerateCertificateRequest) (*contracts.CertificateReceipt, error) {
	r, err := authorized(d.client)
	if err != nil {
		return nil, apperror.External(documentService, err)
	}

	var envelope contracts.Envelope[contracts.CertificateReceipt]
	resp, err := r.SetContext(ctx).
		SetBody(req).
		SetResult(&envelope).
		Post("/certificates/generate")
	if err := checkResponse(documentService, resp, err); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.External(documentService, err)
		}
		return nil, err
	}
	if envelope.Data.ID == 0 {
		return nil, apperror.External(documentService, errors.New("response carries no certificate"))
	}
	return &envelope.Data, nil
}
