package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apierrors "github.com/cinematch/backend/internal/errors"
	"github.com/cinematch/backend/internal/logger"
	"github.com/cinematch/backend/internal/onboarding"
	"github.com/cinematch/backend/internal/repository"
	"github.com/cinematch/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPreferencesBody = 1 << 20

// preferencesResponse reports every submitted item. Error is only set when
// nothing was saved.
type preferencesResponse struct {
	Message               string               `json:"message"`
	Successful            int                  `json:"successful"`
	Failed                int                  `json:"failed"`
	SuccessfulPreferences []onboarding.Success `json:"successfulPreferences"`
	FailedPreferences     []onboarding.Failure `json:"failedPreferences,omitempty"`
	Error                 string               `json:"error,omitempty"`
	Code                  string               `json:"code,omitempty"`
}

// SavePreferences ingests onboarding ratings. The body is a bare JSON array of
// {tmdbId, rating, seen}. Partial success is 200; zero successes is 400.
// POST /api/user/preferences
func (h *Handlers) SavePreferences(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	items, err := decodePreferences(c.Request.Body)
	if err != nil {
		util.RespondBadRequest(c, "Preferences must be an array")
		return
	}

	result, err := h.ingester.Ingest(c.Request.Context(), userID, items)
	if err != nil {
		if errors.Is(err, onboarding.ErrUserNotFound) {
			util.RespondUnauthorized(c, "User not found. Please log in again.")
			return
		}
		logger.Log.Error("Failed to save preferences", logger.WithUserID(userID), zap.Error(err))
		util.RespondWithAPIError(c, apierrors.InternalError("Failed to save preferences").WithDetails(err.Error()))
		return
	}

	resp := preferencesResponse{
		Message:               fmt.Sprintf("Processed %d preferences", len(items)),
		Successful:            len(result.Successful),
		Failed:                len(result.Failed),
		SuccessfulPreferences: result.Successful,
		FailedPreferences:     result.Failed,
	}
	if !result.Saved() {
		resp.Error = "No preferences were successfully saved"
		resp.Code = string(apierrors.ErrBadRequest)
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func decodePreferences(body io.Reader) ([]onboarding.Item, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxPreferencesBody))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.New("body is not an array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	return onboarding.ParseItems(elems), nil
}

// MarkOnboardingCompleted sets the caller's onboarding flag
// POST /api/user/onboarding-completed
func (h *Handlers) MarkOnboardingCompleted(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := h.onboarding.SetOnboardingCompleted(c.Request.Context(), userID, true)
	if errors.Is(err, repository.ErrUserNotFound) {
		util.RespondUnauthorized(c, "User not found. Please log in again.")
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to update onboarding status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "Onboarding completed",
		"onboardingCompleted": true,
	})
}
