package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/model"
	"github.com/greener-project/greener/pkg/stores"
)

// IngressHandler implements the write paths used by CI agents. Both
// endpoints authenticate themselves via the X-API-Key header instead
// of the JWT middleware.
type IngressHandler struct {
	apikeys   *stores.APIKeyStore
	sessions  *stores.SessionStore
	labels    *stores.LabelStore
	testcases *stores.TestcaseStore
}

func NewIngressHandler(apikeys *stores.APIKeyStore, sessions *stores.SessionStore, labels *stores.LabelStore, testcases *stores.TestcaseStore) *IngressHandler {
	return &IngressHandler{apikeys: apikeys, sessions: sessions, labels: labels, testcases: testcases}
}

// authenticate verifies the X-API-Key header and returns the key row,
// which carries the owning user.
func (h *IngressHandler) authenticate(r *http.Request) (*model.APIKey, error) {
	header := r.Header.Get("X-API-Key")
	if header == "" {
		return nil, notAuthorized("Missing X-API-Key header")
	}

	cred, err := auth.DecodeAPIKey(header)
	if err != nil {
		return nil, notAuthorized("Invalid API key format")
	}

	key, err := h.apikeys.GetAny(r.Context(), cred.ID)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, notAuthorized("Invalid API key")
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifySecret(cred.Secret, key.SecretSalt, key.SecretHash) {
		return nil, notAuthorized("Invalid API key")
	}
	return key, nil
}

type ingressLabel struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

type ingressSessionRequest struct {
	ID          *string        `json:"id"`
	Description *string        `json:"description"`
	Baggage     model.JSONMap  `json:"baggage"`
	Labels      []ingressLabel `json:"labels"`
}

func (h *IngressHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	key, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body ingressSessionRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	sessionID := uuid.New()
	if body.ID != nil && *body.ID != "" {
		if sessionID, err = uuid.Parse(*body.ID); err != nil {
			writeError(w, validationError("Cannot parse session ID"))
			return
		}
	}

	session := &model.Session{
		ID:          sessionID,
		Description: body.Description,
		Baggage:     body.Baggage,
		UserID:      key.UserID,
	}
	err = h.sessions.Create(r.Context(), session)
	if errors.Is(err, stores.ErrDuplicate) {
		writeError(w, validationError("Session with this ID already exists"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	// The labels insert is a second statement: a failure here leaves
	// the session created without labels.
	if len(body.Labels) > 0 {
		labels := make([]model.Label, 0, len(body.Labels))
		for _, l := range body.Labels {
			labels = append(labels, model.Label{
				Key:       l.Key,
				Value:     l.Value,
				SessionID: session.ID,
				UserID:    key.UserID,
			})
		}
		if err := h.labels.InsertMany(r.Context(), labels); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, struct {
		ID uuid.UUID `json:"id"`
	}{session.ID})
}

type ingressTestcase struct {
	SessionID         string        `json:"sessionId"`
	TestcaseName      string        `json:"testcaseName"`
	Status            string        `json:"status"`
	TestcaseClassname *string       `json:"testcaseClassname"`
	TestcaseFile      *string       `json:"testcaseFile"`
	Testsuite         *string       `json:"testsuite"`
	Output            *string       `json:"output"`
	Baggage           model.JSONMap `json:"baggage"`
}

type ingressTestcasesRequest struct {
	Testcases []ingressTestcase `json:"testcases"`
}

func (h *IngressHandler) CreateTestcases(w http.ResponseWriter, r *http.Request) {
	key, err := h.authenticate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body ingressTestcasesRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if len(body.Testcases) == 0 {
		writeJSON(w, http.StatusCreated, nil)
		return
	}

	testcases := make([]model.Testcase, 0, len(body.Testcases))
	for _, tc := range body.Testcases {
		sessionID, err := uuid.Parse(tc.SessionID)
		if err != nil {
			writeError(w, validationError("Cannot parse session ID"))
			return
		}

		session, err := h.sessions.GetAny(r.Context(), sessionID)
		if errors.Is(err, stores.ErrNotFound) {
			writeError(w, validationError("Unknown session ID"))
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		// Do not leak another user's session: same 400 family, but
		// without confirming existence.
		if session.UserID != key.UserID {
			writeError(w, validationError("Session not found"))
			return
		}

		status, err := model.ParseStatus(tc.Status)
		if err != nil {
			writeError(w, validationError("%s", err))
			return
		}

		testcases = append(testcases, model.Testcase{
			Status:    status,
			Name:      tc.TestcaseName,
			Classname: tc.TestcaseClassname,
			File:      tc.TestcaseFile,
			Testsuite: tc.Testsuite,
			Output:    tc.Output,
			Baggage:   tc.Baggage,
			SessionID: session.ID,
			UserID:    key.UserID,
		})
	}

	if err := h.testcases.InsertMany(r.Context(), testcases); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}
