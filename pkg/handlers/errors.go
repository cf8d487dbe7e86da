package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
)

// now is the clock used to compute lifecycle status on responses.
var now = time.Now

// statusFor maps the ledger taxonomy to HTTP. Daily-gate and capacity
// conflicts are client errors (400); duplicate codes, lost optimistic
// updates and double redemption are 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrDuplicateCode),
		errors.Is(err, ledger.ErrConcurrentUpdate),
		errors.Is(err, ledger.ErrAlreadyRedeemed):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	}

	var domainErr *ledger.Error
	if errors.As(err, &domainErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error body and logs it: expected domain failures
// at Warn, anything else at Error with a generic message to the client.
func respondError(c *gin.Context, op string, err error, fields logrus.Fields) {
	log := logrus.WithFields(fields)

	var domainErr *ledger.Error
	status := statusFor(err)
	if status == http.StatusInternalServerError || !errors.As(err, &domainErr) {
		log.WithError(err).Error(op + ": Internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal_error"})
		return
	}

	log.WithField("code", domainErr.Code).Warn(op + ": " + domainErr.Message)
	c.JSON(status, gin.H{"error": domainErr.Message, "code": domainErr.Code})
}

func respondBindError(c *gin.Context, op string, err error) {
	logrus.WithField("error", err).Warn(op + ": Invalid request body")
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error(), "code": "invalid_request"})
}
