package membershipapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"membership-workflow/internal/telemetry"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *telemetry.RecordAPI) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tel := &telemetry.RecordAPI{}
	client, err := NewClient(ClientOptions{BaseUrl: srv.URL + "/"}, tel)
	require.NoError(t, err)
	return client, tel
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(ClientOptions{}, &telemetry.RecordAPI{})
	require.NoError(t, err)
	require.Equal(t, DefaultBaseUrl, client.BaseUrl())

	_, err = NewClient(ClientOptions{BaseUrl: "localhost:8000"}, &telemetry.RecordAPI{})
	require.Error(t, err)
	_, err = NewClient(ClientOptions{BaseUrl: "/relative"}, &telemetry.RecordAPI{})
	require.Error(t, err)
}

func TestVerifyDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/verify-document/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "ABC1234567", r.FormValue("epic_number"))

		file, header, err := r.FormFile("pdf_file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "proof.pdf", header.Filename)
		require.Equal(t, "application/pdf", header.Header.Get("content-type"))
		contents, _ := io.ReadAll(file)
		require.Equal(t, "%PDF-1.4", string(contents))

		writeJson(w, 200, map[string]string{
			"message":            "Document verified",
			"verification_token": "token-1",
		})
	})

	res, err := client.VerifyDocument(context.Background(), "ABC1234567", FilePart{
		Name:        "proof.pdf",
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	require.Equal(t, VerifyDocumentResponse{Message: "Document verified", VerificationToken: "token-1"}, res)
}

func TestVerifyDocumentEmptyToken(t *testing.T) {
	client, tel := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, 200, map[string]string{"message": "ok"})
	})

	_, err := client.VerifyDocument(context.Background(), "ABC1234567", FilePart{
		Name:   "proof.pdf",
		Reader: strings.NewReader("x"),
	})
	require.True(t, IsError(err))
	require.EqualError(t, err, "Document verification failed")
	require.Len(t, tel.Find("broken", "client.verify-document"), 1)
}

func TestErrorDetail(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "string detail",
			status:   400,
			body:     `{"detail": "EPIC number mismatch"}`,
			expected: "EPIC number mismatch",
		},
		{
			name:     "validation list",
			status:   422,
			body:     `{"detail": [{"loc": ["body", "member_id"], "msg": "field required"}, {"msg": "value is not a valid integer"}]}`,
			expected: "field required; value is not a valid integer",
		},
		{
			name:     "no detail",
			status:   500,
			body:     `{"error": "internal"}`,
			expected: "Payment update failed",
		},
		{
			name:     "not json",
			status:   502,
			body:     `<html>bad gateway</html>`,
			expected: "Payment update failed",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				w.Write([]byte(test.body))
			})

			_, err := client.UpdatePayment(context.Background(), 1, PaymentCompleted)
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, test.status, apiErr.StatusCode)
			require.Equal(t, "/update-payment/", apiErr.Endpoint)
			require.Equal(t, test.expected, apiErr.Detail)
		})
	}
}

func TestSubmitDetails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "token-1", r.FormValue("verification_token"))
		require.Equal(t, "Asha", r.FormValue("name"))
		require.Equal(t, "9876543210", r.FormValue("contact_no"))
		_, header, err := r.FormFile("photo_file")
		require.NoError(t, err)
		require.Equal(t, "photo.png", header.Filename)

		writeJson(w, 200, map[string]any{
			"message":       "registered",
			"member_id":     12,
			"membership_no": "BSP-202408-000012",
		})
	})

	res, err := client.SubmitDetails(context.Background(), SubmitDetailsRequest{
		VerificationToken: "token-1",
		Photo: FilePart{
			Name:        "photo.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader([]byte("png")),
		},
		Fields: map[string]string{"name": "Asha", "contact_no": "9876543210"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(12), res.MemberId)
	require.Equal(t, "BSP-202408-000012", res.MembershipNo)
}

func TestUpdatePayment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/update-payment/", r.URL.Path)
		require.Contains(t, r.Header.Get("content-type"), "application/json")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]any{"member_id": float64(5), "status": "failed"}, body)
		writeJson(w, 200, map[string]string{"message": "Payment status updated"})
	})

	res, err := client.UpdatePayment(context.Background(), 5, PaymentFailed)
	require.NoError(t, err)
	require.Equal(t, "Payment status updated", res.Message)
}

func TestGenerateAndDownloadCard(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\ncard")
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate-card-pillow/":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "9", r.FormValue("member_id"))
			writeJson(w, 200, map[string]any{
				"message":       "Card generated",
				"member_id":     9,
				"membership_no": "BSP-202408-000009",
				"card_path":     "cards/card 9.png",
			})
		case "/download-card-pillow":
			if r.URL.Query().Get("card_path") != "cards/card 9.png" {
				writeJson(w, 404, map[string]string{"detail": "Card file not found"})
				return
			}
			w.Header().Set("content-type", "image/png")
			w.Write(png)
		}
	})
	ctx := context.Background()

	res, err := client.GenerateCard(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "cards/card 9.png", res.CardPath)
	require.Equal(t, client.BaseUrl()+"/download-card-pillow?card_path=cards%2Fcard+9.png", client.DownloadUrl(res.CardPath))

	var out bytes.Buffer
	n, err := client.DownloadCard(ctx, res.CardPath, &out)
	require.NoError(t, err)
	require.Equal(t, int64(len(png)), n)
	require.Equal(t, png, out.Bytes())

	_, err = client.DownloadCard(ctx, "cards/missing.png", &out)
	require.EqualError(t, err, "Card file not found")
}

func TestGenerateCardEmptyPath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, 200, map[string]any{"message": "Card generated"})
	})
	_, err := client.GenerateCard(context.Background(), 1)
	require.EqualError(t, err, "Card generation failed")
}

func TestSeedMember(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "TNBSP-123456", r.FormValue("membership_no"))
		require.Equal(t, "demo/photo.jpg", r.FormValue("photo_path"))
		_, hasDesignation := r.MultipartForm.Value["designation"]
		require.False(t, hasDesignation)
		writeJson(w, 200, map[string]any{"message": "Member seeded", "id": 3})
	})

	res, err := client.SeedMember(context.Background(), SeedMemberRequest{
		Name:         "Asha",
		ContactNo:    "9876543210",
		MembershipNo: "TNBSP-123456",
		PhotoPath:    "demo/photo.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Id)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tel := &telemetry.RecordAPI{}
	client, err := NewClient(ClientOptions{BaseUrl: url}, tel)
	require.NoError(t, err)

	_, err = client.GenerateCard(context.Background(), 1)
	require.Error(t, err)
	require.False(t, IsError(err))
	require.Len(t, tel.Find("broken", "client.generate-card"), 1)
}

func TestDownloadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tel := &telemetry.RecordAPI{}
	client, err := NewClient(ClientOptions{BaseUrl: url}, tel)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := client.DownloadCard(context.Background(), "cards/1.png", &buf)
	require.Error(t, err)
	require.False(t, IsError(err))
	require.Zero(t, n)
	require.Zero(t, buf.Len())
	require.Len(t, tel.Find("broken", "client.download-card"), 1)
}

func TestRequestIdHeader(t *testing.T) {
	var ids []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(HeaderRequestId))
		writeJson(w, 200, map[string]string{"message": "ok"})
	})

	for range 2 {
		_, err := client.UpdatePayment(context.Background(), 1, PaymentCompleted)
		require.NoError(t, err)
	}

	require.Len(t, ids, 2)
	for _, id := range ids {
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	}
	require.NotEqual(t, ids[0], ids[1])
}
