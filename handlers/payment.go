package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interlingo/cron"
	appointmentRepo "interlingo/database/repository/appointment"
	paymentRepo "interlingo/database/repository/payment"
	"interlingo/models"
	"interlingo/services/payment"
	"interlingo/services/pricing"
	"interlingo/services/waitlist"
	"interlingo/utils"
)

// PaymentHandler exposes the settlement engine to the external job
// scheduler and to operators.
type PaymentHandler struct {
	Engine       payment.SettlementEngine
	Repo         paymentRepo.PaymentRepository
	Appointments appointmentRepo.AppointmentRepository
	Coordinator  *waitlist.Coordinator
	Schedule     pricing.ScheduleSource
	Queue        *cron.QueueClient
	Logger       *zap.Logger
}

func NewPaymentHandler(
	engine payment.SettlementEngine,
	repo paymentRepo.PaymentRepository,
	appointments appointmentRepo.AppointmentRepository,
	coordinator *waitlist.Coordinator,
	schedule pricing.ScheduleSource,
	queue *cron.QueueClient,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		Engine:       engine,
		Repo:         repo,
		Appointments: appointments,
		Coordinator:  coordinator,
		Schedule:     schedule,
		Queue:        queue,
		Logger:       logger,
	}
}

// RunOperationHandler executes one settlement operation for an
// appointment. The first AUTHORIZE_PAYMENT call prices the session and
// creates the payment aggregate.
func (h *PaymentHandler) RunOperationHandler(c *gin.Context) {
	appointmentID := c.Param("appointmentID")
	op, err := models.ParsePaymentOperation(c.Param("operation"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payment operation", err.Error())
		return
	}

	p, err := h.Repo.GetByAppointmentID(c.Request.Context(), appointmentID)
	if err != nil {
		if op != models.OpAuthorizePayment {
			utils.JSONError(c, http.StatusNotFound, "payment not found", err.Error())
			return
		}
		p, err = h.preparePayment(c, appointmentID)
		if err != nil {
			return
		}
	}

	// async=true defers execution to the settlement worker; payments for
	// imminent sessions jump to the critical queue.
	if h.Queue != nil && c.Query("async") == "true" {
		urgent := false
		if appt, err := h.Appointments.GetAppointmentByID(c.Request.Context(), appointmentID); err == nil {
			urgent = time.Until(appt.StartTime) < h.Coordinator.ShortSlotThreshold
		}
		if err := h.Queue.EnqueueOperation(c.Request.Context(), appointmentID, op, urgent); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "failed to enqueue operation", err.Error())
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"payment": p, "enqueued": string(op)})
		return
	}

	result, err := h.Engine.RunOperation(c.Request.Context(), p, op)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, payment.ErrCannotCancelAfterCapture), errors.Is(err, payment.ErrInvalidTransition):
			status = http.StatusConflict
		case errors.Is(err, payment.ErrProviderRejected), errors.Is(err, payment.ErrPartialCapture):
			status = http.StatusPaymentRequired
		}
		c.JSON(status, gin.H{"payment": p, "result": result, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": p, "result": result})
}

// preparePayment prices the appointment and creates its payment
// aggregate. Writes the error response itself on failure.
func (h *PaymentHandler) preparePayment(c *gin.Context, appointmentID string) (*models.Payment, error) {
	appt, err := h.Appointments.GetAppointmentByID(c.Request.Context(), appointmentID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "appointment not found", err.Error())
		return nil, err
	}

	schedule, err := h.Schedule.ScheduleFor(appt.Currency)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "rate schedule unavailable", err.Error())
		return nil, err
	}

	prices, err := pricing.ComputePrice(appt.Interval(), schedule)
	if err != nil {
		// Pricing failures are fatal for this billing attempt and go to a
		// human-resolution path.
		utils.JSONError(c, http.StatusUnprocessableEntity, "failed to price session", err.Error())
		return nil, err
	}

	p, err := h.Engine.PreparePayment(c.Request.Context(), *appt, prices)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create payment", err.Error())
		return nil, err
	}
	return p, nil
}

// GetPaymentHandler returns an appointment's payment and its audit trail.
func (h *PaymentHandler) GetPaymentHandler(c *gin.Context) {
	appointmentID := c.Param("appointmentID")

	p, err := h.Repo.GetByAppointmentID(c.Request.Context(), appointmentID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "payment not found", err.Error())
		return
	}

	events, err := h.Repo.ListEvents(c.Request.Context(), p.ID)
	if err != nil {
		h.Logger.Warn("failed to load payment events", zap.String("paymentId", p.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"payment": p, "events": events})
}

// ScanWaitListHandler triggers one wait-list scan cycle. Normally driven
// by the periodic scheduler; exposed for operators.
func (h *PaymentHandler) ScanWaitListHandler(c *gin.Context) {
	report, err := h.Coordinator.Scan(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "wait-list scan failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}
