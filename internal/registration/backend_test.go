package registration

import (
	"context"
	"encoding/json"
	"membership-workflow/internal/chrono"
	"membership-workflow/internal/journal"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/telemetry"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for the membership service, every endpoint answers
// with a canned success unless a failure is configured for its path.
type fakeBackend struct {
	lock     sync.Mutex
	calls    map[string]int
	forms    map[string]map[string]string
	files    map[string]string
	payments []map[string]any
	failures map[string]int
	details  map[string]string
	// gate, if set, blocks /verify-document/ until it is closed.
	gate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:    map[string]int{},
		forms:    map[string]map[string]string{},
		files:    map[string]string{},
		failures: map[string]int{},
		details:  map[string]string{},
	}
}

func (b *fakeBackend) fail(path string, status int, detail string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.failures[path] = status
	b.details[path] = detail
}

func (b *fakeBackend) restore(path string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.failures, path)
	delete(b.details, path)
}

func (b *fakeBackend) count(path string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) total() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	sum := 0
	for _, n := range b.calls {
		sum += n
	}
	return sum
}

func (b *fakeBackend) form(path string) map[string]string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.forms[path]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/verify-document/" && b.gate != nil {
		<-b.gate
	}

	b.lock.Lock()
	b.calls[r.URL.Path]++
	if strings.HasPrefix(r.Header.Get("content-type"), "multipart/form-data") {
		err := r.ParseMultipartForm(10 << 20)
		if err == nil {
			values := map[string]string{}
			for key, v := range r.MultipartForm.Value {
				values[key] = v[0]
			}
			b.forms[r.URL.Path] = values
			for key, headers := range r.MultipartForm.File {
				b.files[key] = headers[0].Filename
			}
		}
	}
	if r.URL.Path == "/update-payment/" {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b.payments = append(b.payments, body)
	}
	status, failing := b.failures[r.URL.Path]
	detail := b.details[r.URL.Path]
	b.lock.Unlock()

	w.Header().Set("content-type", "application/json")
	if failing {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"detail": detail})
		return
	}

	var body map[string]any
	switch r.URL.Path {
	case "/verify-document/":
		body = map[string]any{
			"message":            "Document verified successfully",
			"verification_token": "token-123",
		}
	case "/submit-details/":
		body = map[string]any{
			"message":       "Member registered",
			"member_id":     42,
			"membership_no": "BSP-202408-000042",
		}
	case "/update-payment/":
		body = map[string]any{"message": "Payment updated"}
	case "/generate-card-pillow/":
		body = map[string]any{
			"message":       "Card generated",
			"member_id":     42,
			"membership_no": "BSP-202408-000042",
			"card_path":     "cards/BSP-202408-000042.png",
		}
	case "/seed-sqlite-member/":
		body = map[string]any{"message": "Member seeded", "id": 7}
	default:
		w.WriteHeader(http.StatusNotFound)
		body = map[string]any{"detail": "Not Found"}
	}
	json.NewEncoder(w).Encode(body)
}

type memoryJournal struct {
	lock    sync.Mutex
	entries []journal.Entry
}

func (j *memoryJournal) Record(ctx context.Context, entry journal.Entry) (journal.Entry, error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	entry.Id = int64(len(j.entries) + 1)
	j.entries = append(j.entries, entry)
	return entry, nil
}

var testClock = chrono.FixedTime{At: time.UnixMilli(1722500123456)}

type harness struct {
	backend    *fakeBackend
	server     *httptest.Server
	client     *membershipapi.Client
	tel        *telemetry.RecordAPI
	journal    *memoryJournal
	controller *Controller
}

func newHarness(t *testing.T, policy Policy) harness {
	backend := newFakeBackend()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	tel := &telemetry.RecordAPI{}
	client, err := membershipapi.NewClient(membershipapi.ClientOptions{BaseUrl: server.URL}, tel)
	require.NoError(t, err)

	j := &memoryJournal{}
	controller := NewController(client, tel, Options{
		Policy:  policy,
		Time:    testClock,
		Journal: j,
	})
	return harness{
		backend:    backend,
		server:     server,
		client:     client,
		tel:        tel,
		journal:    j,
		controller: controller,
	}
}

func testDocument() File {
	return NewFile("proof.pdf", "application/pdf", []byte(strings.Repeat("%PDF", 1024)))
}

func testPhoto() File {
	return NewFile("photo.png", "image/png", []byte(strings.Repeat("p", 4096)))
}

func testDetails() MemberDetails {
	return MemberDetails{
		FullName:   "Asha Kumar",
		Profession: "Teacher",
		Mandal:     "Guntur",
		Dob:        "1990-04-12",
		BloodGroup: "O+",
		Contact:    "9876543210",
		Address:    "12 Main Road, Guntur 522001",
	}
}
