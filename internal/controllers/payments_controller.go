package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/dtos"
	"github.com/ronnyabuto/rent-service/internal/services"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

type PaymentsController struct {
	paymentService *services.PaymentService
}

func NewPaymentsController(s *services.PaymentService) *PaymentsController {
	return &PaymentsController{paymentService: s}
}

var paymentsValidate = validator.New()

// POST /api/v1/payments/mpesa/validation
//
// Daraja asks us whether to let the transaction proceed. We reject
// unknown payers and non-positive amounts with the provider's result
// codes; everything else is accepted and settled at confirmation time.
func (c *PaymentsController) MpesaValidationHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeC2BRequest(w, r)
	if !ok {
		return
	}

	amountCents, err := parseMpesaAmount(req.TransAmount)
	if err != nil {
		respondC2B(w, constants.MpesaResultRejectAmount)
		return
	}

	code, err := c.paymentService.ValidateTransaction(r.Context(), req.MSISDN, amountCents)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	respondC2B(w, code)
}

// POST /api/v1/payments/mpesa/confirmation
//
// The reconciliation entry point. Daraja expects an acknowledgment
// whether or not we could apply the payment; unmatched transactions are
// parked for the manual queue, not bounced.
func (c *PaymentsController) MpesaConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeC2BRequest(w, r)
	if !ok {
		return
	}

	tx, err := toRawTransaction(req)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Unparseable transaction fields", nil, err)
		return
	}

	n, err := c.paymentService.ProcessTransaction(r.Context(), tx)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.Logger.Infof("Transaction %s resolved as %s", n.TransactionID, n.Status)
	respondC2B(w, constants.MpesaResultAccepted)
}

// GET /api/v1/payments/unmatched
func (c *PaymentsController) ListUnmatchedHandler(w http.ResponseWriter, r *http.Request) {
	unmatched, err := c.paymentService.ListUnmatched(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusInternalServerError, utils.ErrCodeInternal, "Could not list unmatched payments", nil, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, unmatched)
}

/* ---------- helpers ---------- */

func decodeC2BRequest(w http.ResponseWriter, r *http.Request) (*dtos.MpesaC2BRequest, bool) {
	var req dtos.MpesaC2BRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", nil, err)
		return nil, false
	}
	if err := paymentsValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing or malformed C2B fields", nil, err)
		return nil, false
	}
	return &req, true
}

func toRawTransaction(req *dtos.MpesaC2BRequest) (services.RawTransaction, error) {
	amountCents, err := parseMpesaAmount(req.TransAmount)
	if err != nil {
		return services.RawTransaction{}, err
	}
	transTime, err := parseMpesaTime(req.TransTime)
	if err != nil {
		return services.RawTransaction{}, err
	}
	return services.RawTransaction{
		TransactionID:   req.TransID,
		AmountCents:     amountCents,
		MSISDN:          req.MSISDN,
		TransactionTime: transTime,
		ShortCode:       req.BusinessShortCode,
		Reference:       req.BillRefNumber,
	}, nil
}

// parseMpesaAmount converts Daraja's decimal-string amount to cents
// without float drift.
func parseMpesaAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Shift(2).IntPart(), nil
}

// parseMpesaTime reads Daraja's yyyyMMddHHmmss stamp in business-local
// time.
func parseMpesaTime(s string) (time.Time, error) {
	loc, err := time.LoadLocation(constants.BusinessTimezone)
	if err != nil {
		loc = time.UTC
	}
	return time.ParseInLocation(constants.MpesaTimeLayout, s, loc)
}

func respondC2B(w http.ResponseWriter, code string) {
	desc := constants.MpesaResultDescAccepted
	if code != constants.MpesaResultAccepted {
		desc = constants.MpesaResultDescRejected
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MpesaC2BResponse{
		ResultCode: code,
		ResultDesc: desc,
	})
}
