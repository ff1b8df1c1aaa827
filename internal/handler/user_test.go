package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sati-centro/consulta-booking/internal/model"
)

type stubDirectory struct {
	users map[uint64]*model.User
}

func (s *stubDirectory) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubDirectory) SetDocumentationStatus(_ context.Context, userID uint64, status string) error {
	if u, ok := s.users[userID]; ok {
		u.DocumentationStatus = status
	}
	return nil
}

func patchDocumentation(h *UserHandler, id, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/users/"+id+"/documentation", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.SetParamNames("id")
	c.SetParamValues(id)
	_ = h.ReviewDocumentation(c)
	return rr
}

func TestReviewDocumentationApproves(t *testing.T) {
	dir := &stubDirectory{users: map[uint64]*model.User{
		3: {ID: 3, Email: "nuevo@example.com", DocumentationStatus: model.DocPending},
	}}
	h := NewUserHandler(dir)

	rr := patchDocumentation(h, "3", `{"status":"approved"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if got := dir.users[3].DocumentationStatus; got != model.DocApproved {
		t.Errorf("documentation status = %q, want approved", got)
	}
}

func TestReviewDocumentationValidation(t *testing.T) {
	dir := &stubDirectory{users: map[uint64]*model.User{
		3: {ID: 3, DocumentationStatus: model.DocPending},
	}}
	h := NewUserHandler(dir)

	cases := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"unknown_status", "3", `{"status":"verified"}`, http.StatusBadRequest},
		{"empty_status", "3", `{}`, http.StatusBadRequest},
		{"bad_id", "abc", `{"status":"approved"}`, http.StatusBadRequest},
		{"missing_user", "99", `{"status":"approved"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := patchDocumentation(h, tc.id, tc.body); rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
	if got := dir.users[3].DocumentationStatus; got != model.DocPending {
		t.Errorf("documentation status = %q, want untouched pending", got)
	}
}
