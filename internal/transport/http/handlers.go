// Package httptransport is the thin HTTP layer. Handlers decode a JSON
// body, delegate to the auth service, and wrap the result in the
// Ok/Err envelope; business rules never live here.
package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"custos/internal/auth"
	"custos/pkg/autherr"
)

// ServiceName and Version identify the service on the info endpoint.
const (
	ServiceName = "custos"
	Version     = "0.1"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// envelope is the wire shape of every response: exactly one of Ok or Err.
type envelope struct {
	Ok  any           `json:"Ok,omitempty"`
	Err *autherr.Code `json:"Err,omitempty"`
}

func writeOk(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(envelope{Ok: v})
}

func writeErr(w http.ResponseWriter, err error) {
	code := autherr.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(code))
	_ = json.NewEncoder(w).Encode(envelope{Err: &code})
}

// statusOf maps error codes onto HTTP statuses. Domain refusals are 400:
// the request was understood and rejected by a workflow rule.
func statusOf(code autherr.Code) int {
	switch code {
	case autherr.CodeNotFound:
		return http.StatusNotFound
	case autherr.CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case autherr.CodeInternalServerError, autherr.CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// handle adapts one service operation into an http.HandlerFunc.
func handle[Req any, Resp any](fn func(r *http.Request, req Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, autherr.New(autherr.CodeBadRequest, "invalid request body"))
			return
		}
		resp, err := fn(r, req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeOk(w, resp)
	}
}

// checkAddress rejects addresses that would bounce before the mail
// service ever sees them. Empty stays with the service; it has its own
// rule for that.
func checkAddress(addr string) error {
	if addr != "" && !govalidator.IsEmail(addr) {
		return autherr.New(autherr.CodeEmailBounced, "malformed email address")
	}
	return nil
}

func (h *Handler) userNew(r *http.Request, req auth.UserNewProps) (auth.UserDataResp, error) {
	if err := checkAddress(req.UserEmail); err != nil {
		return auth.UserDataResp{}, err
	}
	if req.ParentEmail != nil {
		if err := checkAddress(*req.ParentEmail); err != nil {
			return auth.UserDataResp{}, err
		}
	}
	return h.svc.UserNew(r.Context(), req)
}

func (h *Handler) userDataNew(r *http.Request, req auth.UserDataNewProps) (auth.UserDataResp, error) {
	return h.svc.UserDataNew(r.Context(), req)
}

func (h *Handler) verificationChallengeNew(r *http.Request, req auth.VerificationChallengeNewProps) (auth.VerificationChallengeResp, error) {
	if err := checkAddress(req.Email); err != nil {
		return auth.VerificationChallengeResp{}, err
	}
	return h.svc.VerificationChallengeNew(r.Context(), req)
}

func (h *Handler) emailNew(r *http.Request, req auth.EmailNewProps) (auth.EmailResp, error) {
	return h.svc.EmailNew(r.Context(), req)
}

func (h *Handler) parentPermissionNew(r *http.Request, req auth.ParentPermissionNewProps) (auth.ParentPermissionResp, error) {
	return h.svc.ParentPermissionNew(r.Context(), req)
}

func (h *Handler) passwordResetNew(r *http.Request, req auth.PasswordResetNewProps) (auth.PasswordResetResp, error) {
	return h.svc.PasswordResetNew(r.Context(), req)
}

func (h *Handler) passwordNewReset(r *http.Request, req auth.PasswordNewResetProps) (auth.PasswordResp, error) {
	return h.svc.PasswordNewReset(r.Context(), req)
}

func (h *Handler) passwordNewChange(r *http.Request, req auth.PasswordNewChangeProps) (auth.PasswordResp, error) {
	return h.svc.PasswordNewChange(r.Context(), req)
}

func (h *Handler) apiKeyNewValid(r *http.Request, req auth.APIKeyNewValidProps) (auth.APIKeyResp, error) {
	return h.svc.APIKeyNewValid(r.Context(), req)
}

func (h *Handler) apiKeyNewCancel(r *http.Request, req auth.APIKeyNewCancelProps) (auth.APIKeyResp, error) {
	return h.svc.APIKeyNewCancel(r.Context(), req)
}

func (h *Handler) userView(r *http.Request, req auth.UserViewProps) ([]auth.UserResp, error) {
	return h.svc.UserView(r.Context(), req)
}

func (h *Handler) userDataView(r *http.Request, req auth.UserDataViewProps) ([]auth.UserDataResp, error) {
	return h.svc.UserDataView(r.Context(), req)
}

func (h *Handler) verificationChallengeView(r *http.Request, req auth.VerificationChallengeViewProps) ([]auth.VerificationChallengeResp, error) {
	return h.svc.VerificationChallengeView(r.Context(), req)
}

func (h *Handler) emailView(r *http.Request, req auth.EmailViewProps) ([]auth.EmailResp, error) {
	return h.svc.EmailView(r.Context(), req)
}

func (h *Handler) parentPermissionView(r *http.Request, req auth.ParentPermissionViewProps) ([]auth.ParentPermissionResp, error) {
	return h.svc.ParentPermissionView(r.Context(), req)
}

func (h *Handler) passwordView(r *http.Request, req auth.PasswordViewProps) ([]auth.PasswordResp, error) {
	return h.svc.PasswordView(r.Context(), req)
}

func (h *Handler) apiKeyView(r *http.Request, req auth.APIKeyViewProps) ([]auth.APIKeyResp, error) {
	return h.svc.APIKeyView(r.Context(), req)
}

func (h *Handler) getUserByID(r *http.Request, req auth.GetUserByIDProps) (auth.UserResp, error) {
	return h.svc.GetUserByID(r.Context(), req)
}

func (h *Handler) getUserByAPIKeyIfValid(r *http.Request, req auth.GetUserByAPIKeyIfValidProps) (auth.UserResp, error) {
	return h.svc.GetUserByAPIKeyIfValid(r.Context(), req)
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    ServiceName,
		"version": Version,
	})
}
