package membershipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"membership-workflow/internal/telemetry"
	"membership-workflow/lib/restyutil"
	libtelemetry "membership-workflow/lib/telemetry"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_client_verify_document = "client.verify-document"
	report_client_submit_details  = "client.submit-details"
	report_client_update_payment  = "client.update-payment"
	report_client_generate_card   = "client.generate-card"
	report_client_download_card   = "client.download-card"
	report_client_seed_member     = "client.seed-member"
)

const (
	pathVerifyDocument = "/verify-document/"
	pathSubmitDetails  = "/submit-details/"
	pathUpdatePayment  = "/update-payment/"
	pathGenerateCard   = "/generate-card-pillow/"
	pathDownloadCard   = "/download-card-pillow"
	pathSeedMember     = "/seed-sqlite-member/"
)

// HeaderRequestId carries a fresh id on every request so backend logs can be
// matched with client reports.
const HeaderRequestId = "x-request-id"

// DefaultBaseUrl is where the membership backend listens during local development.
const DefaultBaseUrl = "http://127.0.0.1:8000"

type Client struct {
	http    *resty.Client
	baseUrl *url.URL
	tel     telemetry.API
}

type ClientOptions struct {
	BaseUrl string
	// Timeout is applied to every request, zero means requests run until
	// the server answers or the connection fails.
	Timeout time.Duration
	// Output, if set, receives a dump of every request/response pair while
	// debug logging is enabled.
	Output restyutil.InstrumentOutput
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	tel = telemetry.NewScopedAPI("membershipapi", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url must be absolute: %q", opts.BaseUrl)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	httpClient.SetHeader("accept", "application/json")
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if req.Header.Get(HeaderRequestId) == "" {
			req.SetHeader(HeaderRequestId, uuid.NewString())
		}
		return nil
	})

	telemetry.InstrumentResty(httpClient, tel)
	libtelemetry.InstrumentResty(httpClient, "membershipapi/http")
	restyutil.InstrumentClient(httpClient, opts.Output)

	return &Client{
		http:    httpClient,
		baseUrl: baseUrl,
		tel:     tel,
	}, nil
}

// BaseUrl returns the root every endpoint is resolved against.
func (c *Client) BaseUrl() string {
	return c.baseUrl.String()
}

// FilePart is a file attached to a multipart request.
type FilePart struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// decode parses a JSON response body into `out` when the response is a success,
// otherwise it returns an *Error carrying the server's detail or `fallback`.
func decode(endpoint, fallback string, res *resty.Response, out any) error {
	if !res.IsSuccess() {
		return newError(endpoint, res.StatusCode(), res.Body(), fallback)
	}
	if out == nil {
		return nil
	}
	err := json.Unmarshal(res.Body(), out)
	if err != nil {
		return fmt.Errorf("unmarshal %s response: %w", endpoint, err)
	}
	return nil
}

type VerifyDocumentResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
}

// VerifyDocument uploads the voter-id proof together with the EPIC number it
// should contain. The returned token authorizes SubmitDetails.
func (c *Client) VerifyDocument(ctx context.Context, epicNumber string, document FilePart) (VerifyDocumentResponse, error) {
	c.tel.ReportDebug(report_client_verify_document, epicNumber, document.Name)

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"epic_number": epicNumber,
		}).
		SetMultipartField("pdf_file", document.Name, document.ContentType, document.Reader).
		Post(pathVerifyDocument)
	if err != nil {
		c.tel.ReportBroken(
			report_client_verify_document,
			fmt.Errorf("fetch: %w", err),
		)
		return VerifyDocumentResponse{}, fmt.Errorf("verify document: %w", err)
	}

	var out VerifyDocumentResponse
	err = decode(pathVerifyDocument, "Document verification failed", res, &out)
	if err != nil {
		return VerifyDocumentResponse{}, err
	}
	if out.VerificationToken == "" {
		c.tel.ReportBroken(report_client_verify_document, "empty verification token")
		return VerifyDocumentResponse{}, &Error{
			Endpoint:   pathVerifyDocument,
			StatusCode: res.StatusCode(),
			Detail:     "Document verification failed",
		}
	}
	return out, nil
}

type SubmitDetailsRequest struct {
	VerificationToken string
	Photo             FilePart
	// Fields are keyed by the names the backend expects (name, contact_no, ...).
	Fields map[string]string
}

type SubmitDetailsResponse struct {
	Message      string `json:"message"`
	MemberId     int64  `json:"member_id"`
	MembershipNo string `json:"membership_no"`
}

func (c *Client) SubmitDetails(ctx context.Context, req SubmitDetailsRequest) (SubmitDetailsResponse, error) {
	c.tel.ReportDebug(report_client_submit_details, req.Photo.Name, len(req.Fields))

	form := make(map[string]string, len(req.Fields)+1)
	for k, v := range req.Fields {
		form[k] = v
	}
	form["verification_token"] = req.VerificationToken

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetMultipartField("photo_file", req.Photo.Name, req.Photo.ContentType, req.Photo.Reader).
		Post(pathSubmitDetails)
	if err != nil {
		c.tel.ReportBroken(
			report_client_submit_details,
			fmt.Errorf("fetch: %w", err),
		)
		return SubmitDetailsResponse{}, fmt.Errorf("submit details: %w", err)
	}

	var out SubmitDetailsResponse
	err = decode(pathSubmitDetails, "Member details submission failed", res, &out)
	return out, err
}

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type updatePaymentRequest struct {
	MemberId int64         `json:"member_id"`
	Status   PaymentStatus `json:"status"`
}

type UpdatePaymentResponse struct {
	Message string `json:"message"`
}

func (c *Client) UpdatePayment(ctx context.Context, memberId int64, status PaymentStatus) (UpdatePaymentResponse, error) {
	c.tel.ReportDebug(report_client_update_payment, memberId, status)

	body, err := json.Marshal(updatePaymentRequest{
		MemberId: memberId,
		Status:   status,
	})
	if err != nil {
		c.tel.ReportBroken(
			report_client_update_payment,
			fmt.Errorf("json marshal: %w", err),
		)
		return UpdatePaymentResponse{}, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(pathUpdatePayment)
	if err != nil {
		c.tel.ReportBroken(
			report_client_update_payment,
			fmt.Errorf("fetch: %w", err),
		)
		return UpdatePaymentResponse{}, fmt.Errorf("update payment: %w", err)
	}

	var out UpdatePaymentResponse
	err = decode(pathUpdatePayment, "Payment update failed", res, &out)
	return out, err
}

type GenerateCardResponse struct {
	Message      string `json:"message"`
	MemberId     int64  `json:"member_id"`
	MembershipNo string `json:"membership_no"`
	CardPath     string `json:"card_path"`
}

func (c *Client) GenerateCard(ctx context.Context, memberId int64) (GenerateCardResponse, error) {
	c.tel.ReportDebug(report_client_generate_card, memberId)

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"member_id": strconv.FormatInt(memberId, 10),
		}).
		Post(pathGenerateCard)
	if err != nil {
		c.tel.ReportBroken(
			report_client_generate_card,
			fmt.Errorf("fetch: %w", err),
		)
		return GenerateCardResponse{}, fmt.Errorf("generate card: %w", err)
	}

	var out GenerateCardResponse
	err = decode(pathGenerateCard, "Card generation failed", res, &out)
	if err != nil {
		return GenerateCardResponse{}, err
	}
	if out.CardPath == "" {
		c.tel.ReportBroken(report_client_generate_card, "empty card path", memberId)
		return GenerateCardResponse{}, &Error{
			Endpoint:   pathGenerateCard,
			StatusCode: res.StatusCode(),
			Detail:     "Card generation failed",
		}
	}
	return out, nil
}

// DownloadUrl is the link that serves the rendered card at `cardPath`.
func (c *Client) DownloadUrl(cardPath string) string {
	query := url.Values{}
	query.Set("card_path", cardPath)
	return fmt.Sprintf("%s%s?%s", c.baseUrl.String(), pathDownloadCard, query.Encode())
}

// DownloadCard streams the card artifact at `cardPath` into `out`.
func (c *Client) DownloadCard(ctx context.Context, cardPath string, out io.Writer) (int64, error) {
	c.tel.ReportDebug(report_client_download_card, cardPath)

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("card_path", cardPath).
		SetHeader("accept", "image/png").
		SetDoNotParseResponse(true).
		Get(pathDownloadCard)
	if err != nil {
		c.tel.ReportBroken(
			report_client_download_card,
			fmt.Errorf("fetch: %w", err),
		)
		return 0, fmt.Errorf("download card: %w", err)
	}
	// response hooks do not run for unparsed responses
	defer trace.SpanFromContext(res.Request.Context()).End()
	body := res.RawBody()
	defer body.Close()

	if !res.IsSuccess() {
		contents, _ := io.ReadAll(body)
		return 0, newError(pathDownloadCard, res.StatusCode(), contents, "Card download failed")
	}

	n, err := io.Copy(out, body)
	if err != nil {
		c.tel.ReportBroken(
			report_client_download_card,
			fmt.Errorf("copy body: %w", err),
		)
		return n, fmt.Errorf("download card: %w", err)
	}
	return n, nil
}

// SeedMemberRequest inserts a member directly into the backend's local store,
// skipping verification. Only the demo workflow and operators use it.
type SeedMemberRequest struct {
	Name         string
	ContactNo    string
	MembershipNo string
	Profession   string
	Designation  string
	Mandal       string
	Dob          string
	BloodGroup   string
	Address      string
	PhotoPath    string
	PdfProofPath string
}

func (r SeedMemberRequest) formData() map[string]string {
	form := map[string]string{
		"name":       r.Name,
		"contact_no": r.ContactNo,
	}
	optional := map[string]string{
		"membership_no":  r.MembershipNo,
		"profession":     r.Profession,
		"designation":    r.Designation,
		"mandal":         r.Mandal,
		"dob":            r.Dob,
		"blood_group":    r.BloodGroup,
		"address":        r.Address,
		"photo_path":     r.PhotoPath,
		"pdf_proof_path": r.PdfProofPath,
	}
	for k, v := range optional {
		if v != "" {
			form[k] = v
		}
	}
	return form
}

type SeedMemberResponse struct {
	Message      string `json:"message"`
	Id           int64  `json:"id"`
	MembershipNo string `json:"membership_no"`
}

func (c *Client) SeedMember(ctx context.Context, req SeedMemberRequest) (SeedMemberResponse, error) {
	c.tel.ReportDebug(report_client_seed_member, req.Name, req.MembershipNo)

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(req.formData()).
		Post(pathSeedMember)
	if err != nil {
		c.tel.ReportBroken(
			report_client_seed_member,
			fmt.Errorf("fetch: %w", err),
		)
		return SeedMemberResponse{}, fmt.Errorf("seed member: %w", err)
	}

	var out SeedMemberResponse
	err = decode(pathSeedMember, "Member seeding failed", res, &out)
	return out, err
}
