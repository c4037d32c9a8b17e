package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"calport/internal/delivery/http/middleware"
	"calport/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInteractionService implements domain.InteractionService for handler tests.
type fakeInteractionService struct {
	inviteErr          error
	subscribeErr       error
	joinErr            error
	leaveErr           error
	updateStatusErr    error
	result             *domain.EventInteraction
	lastEventID        string
	lastInviterID      string
	lastInviteeID      string
	lastUserID         string
	lastLeaveType      domain.InteractionType
	lastInteractionID  string
	lastStatus         domain.InteractionStatus
	lastStatusCallerID string
}

func (f *fakeInteractionService) Invite(ctx context.Context, eventID, inviterID, inviteeID string) (*domain.EventInteraction, error) {
	f.lastEventID = eventID
	f.lastInviterID = inviterID
	f.lastInviteeID = inviteeID
	if f.inviteErr != nil {
		return nil, f.inviteErr
	}
	return f.result, nil
}

func (f *fakeInteractionService) Subscribe(ctx context.Context, eventID, userID string) (*domain.EventInteraction, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	return f.result, nil
}

func (f *fakeInteractionService) Join(ctx context.Context, eventID, userID string) (*domain.EventInteraction, error) {
	f.lastEventID = eventID
	f.lastUserID = userID
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return f.result, nil
}

func (f *fakeInteractionService) Leave(ctx context.Context, eventID, userID string, typ domain.InteractionType) error {
	f.lastEventID = eventID
	f.lastUserID = userID
	f.lastLeaveType = typ
	return f.leaveErr
}

func (f *fakeInteractionService) UpdateStatus(ctx context.Context, interactionID, callerID string, status domain.InteractionStatus) (*domain.EventInteraction, error) {
	f.lastInteractionID = interactionID
	f.lastStatusCallerID = callerID
	f.lastStatus = status
	if f.updateStatusErr != nil {
		return nil, f.updateStatusErr
	}
	return f.result, nil
}

func TestInteractionController_Invite(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noUserContext  bool
		wantStatus     int
		wantBodySubstr string
	}{
		{name: "success", body: `{"user_id":"guest"}`, wantStatus: http.StatusCreated},
		{name: "missing user_id", body: `{}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "user_id is required"},
		{name: "no user in context", body: `{"user_id":"guest"}`, noUserContext: true, wantStatus: http.StatusUnauthorized, wantBodySubstr: "unauthorized"},
		{name: "blocked pair", body: `{"user_id":"guest"}`, fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantBodySubstr: "forbidden"},
		{name: "already invited", body: `{"user_id":"guest"}`, fakeErr: domain.ErrConflict, wantStatus: http.StatusConflict, wantBodySubstr: "conflict"},
		{name: "event not found", body: `{"user_id":"guest"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantBodySubstr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInteractionService{
				inviteErr: tt.fakeErr,
				result: &domain.EventInteraction{
					ID: "i-1", EventID: "ev-1", UserID: "guest",
					Type: domain.InteractionInvited, Status: domain.StatusPending,
				},
			}
			ctrl := NewInteractionController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events/ev-1/invitations", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "ev-1")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "owner"))
			}
			rr := httptest.NewRecorder()

			ctrl.Invite(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var got domain.EventInteraction
				require.NoError(t, json.Unmarshal(dataBytes, &got))
				assert.Equal(t, domain.StatusPending, got.Status)
				assert.Equal(t, "ev-1", fake.lastEventID)
				assert.Equal(t, "owner", fake.lastInviterID)
				assert.Equal(t, "guest", fake.lastInviteeID)
			} else if tt.wantBodySubstr != "" {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestInteractionController_SubscribeAndJoin(t *testing.T) {
	tests := []struct {
		name       string
		call       func(ctrl *InteractionController, w http.ResponseWriter, req *http.Request)
		fake       *fakeInteractionService
		wantStatus int
		wantType   domain.InteractionType
	}{
		{
			name: "subscribe success",
			call: (*InteractionController).Subscribe,
			fake: &fakeInteractionService{result: &domain.EventInteraction{
				ID: "i-1", EventID: "ev-1", UserID: "fan",
				Type: domain.InteractionSubscribed, Status: domain.StatusAccepted,
			}},
			wantStatus: http.StatusCreated,
			wantType:   domain.InteractionSubscribed,
		},
		{
			name: "join success",
			call: (*InteractionController).Join,
			fake: &fakeInteractionService{result: &domain.EventInteraction{
				ID: "i-2", EventID: "ev-1", UserID: "fan",
				Type: domain.InteractionJoined, Status: domain.StatusAccepted,
			}},
			wantStatus: http.StatusCreated,
			wantType:   domain.InteractionJoined,
		},
		{
			name:       "subscribe blocked",
			call:       (*InteractionController).Subscribe,
			fake:       &fakeInteractionService{subscribeErr: domain.ErrForbidden},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "join conflict",
			call:       (*InteractionController).Join,
			fake:       &fakeInteractionService{joinErr: domain.ErrConflict},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewInteractionController(testLogger, tt.fake)
			req := httptest.NewRequest(http.MethodPost, "/events/ev-1/subscription", nil)
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "fan"))
			rr := httptest.NewRecorder()

			tt.call(ctrl, rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var got domain.EventInteraction
				require.NoError(t, json.Unmarshal(dataBytes, &got))
				assert.Equal(t, tt.wantType, got.Type)
				assert.Equal(t, domain.StatusAccepted, got.Status)
				assert.Equal(t, "fan", tt.fake.lastUserID)
			} else {
				require.NotNil(t, envelope.Error)
			}
		})
	}
}

func TestInteractionController_Leave(t *testing.T) {
	tests := []struct {
		name           string
		typ            string
		fakeErr        error
		wantStatus     int
		wantBodySubstr string
	}{
		{name: "leave joined", typ: "joined", wantStatus: http.StatusOK},
		{name: "leave subscription", typ: "subscribed", wantStatus: http.StatusOK},
		{name: "unknown type", typ: "owner", wantStatus: http.StatusBadRequest, wantBodySubstr: "type must be one of"},
		{name: "missing type", typ: "", wantStatus: http.StatusBadRequest, wantBodySubstr: "type must be one of"},
		{name: "no interaction", typ: "joined", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantBodySubstr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInteractionService{leaveErr: tt.fakeErr}
			ctrl := NewInteractionController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/events/ev-1/interaction?type="+tt.typ, nil)
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "fan"))
			rr := httptest.NewRecorder()

			ctrl.Leave(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "ev-1", fake.lastEventID)
				assert.Equal(t, domain.InteractionType(tt.typ), fake.lastLeaveType)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestInteractionController_UpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		wantStatus     int
		wantNewStatus  domain.InteractionStatus
		wantBodySubstr string
	}{
		{name: "accept", body: `{"status":"accepted"}`, wantStatus: http.StatusOK, wantNewStatus: domain.StatusAccepted},
		{name: "reject", body: `{"status":"rejected"}`, wantStatus: http.StatusOK, wantNewStatus: domain.StatusRejected},
		{name: "pending is not a valid target", body: `{"status":"pending"}`, wantStatus: http.StatusBadRequest, wantBodySubstr: "status must be accepted or rejected"},
		{name: "not the invitee", body: `{"status":"accepted"}`, fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden, wantBodySubstr: "forbidden"},
		{name: "not found", body: `{"status":"accepted"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantBodySubstr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInteractionService{
				updateStatusErr: tt.fakeErr,
				result: &domain.EventInteraction{
					ID: "i-1", EventID: "ev-1", UserID: "guest",
					Type: domain.InteractionInvited, Status: tt.wantNewStatus,
				},
			}
			ctrl := NewInteractionController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPatch, "/interactions/i-1", bytes.NewBufferString(tt.body))
			req.SetPathValue("interactionID", "i-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "guest"))
			rr := httptest.NewRecorder()

			ctrl.UpdateStatus(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "i-1", fake.lastInteractionID)
				assert.Equal(t, "guest", fake.lastStatusCallerID)
				assert.Equal(t, tt.wantNewStatus, fake.lastStatus)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}
