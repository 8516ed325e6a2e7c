package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
)

func TestRequestCertificateSendsServiceToken(t *testing.T) {
	var got contracts.GenerateCertificateRequest
	var role string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/certificates/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		claims, err := utils.ParseToken(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		require.NoError(t, err)
		role = claims.Role

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":true,"message":"Certificate created","data":{"id":9,"certificate_number":"CERT/20240801/000012/AB12CD34","status":"PENDING"}}`))
	}))
	defer server.Close()

	client := NewDocumentClient(server.URL, 2*time.Second)
	receipt, err := client.RequestCertificate(context.Background(), contracts.GenerateCertificateRequest{
		PlacementID: 12,
		StudentID:   3,
		TotalHours:  240,
	})

	require.NoError(t, err)
	assert.Equal(t, uint(9), receipt.ID)
	assert.Equal(t, models.CertificatePending, receipt.Status)
	assert.Equal(t, models.RoleService, role)
	assert.Equal(t, uint(12), got.PlacementID)
	assert.Equal(t, 240.0, got.TotalHours)
}

func TestRequestCertificateConflictStaysConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status":false,"message":"placement 12 already has an active certificate"}`))
	}))
	defer server.Close()

	client := NewDocumentClient(server.URL, 2*time.Second)
	_, err := client.RequestCertificate(context.Background(), contracts.GenerateCertificateRequest{PlacementID: 12, StudentID: 3})

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, http.StatusConflict, apperror.HTTPStatus(err))
	assert.Contains(t, err.Error(), "already has an active certificate")
}

func TestRequestCertificateServerErrorIsExternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":false,"message":"boom"}`))
	}))
	defer server.Close()

	client := NewDocumentClient(server.URL, 2*time.Second)
	_, err := client.RequestCertificate(context.Background(), contracts.GenerateCertificateRequest{PlacementID: 12, StudentID: 3})

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindExternalService))
	assert.Contains(t, err.Error(), "500")
}

func TestRequestCertificateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewDocumentClient(server.URL, 50*time.Millisecond)
	_, err := client.RequestCertificate(context.Background(), contracts.GenerateCertificateRequest{PlacementID: 1, StudentID: 1})

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindExternalService))
}

func TestRequestCertificateUnreachable(t *testing.T) {
	client := NewDocumentClient("http://127.0.0.1:1", time.Second)
	_, err := client.RequestCertificate(context.Background(), contracts.GenerateCertificateRequest{PlacementID: 1, StudentID: 1})

	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindExternalService))
}

func TestPlacementSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/internal/placements/12/summary", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Placement summary","data":{"placementId":12,"studentId":3,"studentName":"Siti Rahayu","practiceName":"Backend Internship","status":"COMPLETED","expectedHours":240,"completedHours":240,"startDate":"2024-02-01T00:00:00Z","endDate":"2024-07-31T00:00:00Z"}}`))
	}))
	defer server.Close()

	client := NewPracticeClient(server.URL, 2*time.Second)
	summary, err := client.PlacementSummary(context.Background(), 12)

	require.NoError(t, err)
	assert.Equal(t, "Siti Rahayu", summary.StudentName)
	assert.Equal(t, models.PlacementCompleted, summary.Status)
	assert.Equal(t, 240.0, summary.CompletedHours)
	assert.Nil(t, summary.ProfessorID)
}

func TestPlacementSummaryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":false,"message":"placement 99 not found"}`))
	}))
	defer server.Close()

	client := NewPracticeClient(server.URL, 2*time.Second)
	_, err := client.PlacementSummary(context.Background(), 99)

	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPlacementSummaryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPracticeClient(server.URL, 2*time.Second)
	_, err := client.PlacementSummary(context.Background(), 12)

	assert.True(t, apperror.Is(err, apperror.KindExternalService))
}
