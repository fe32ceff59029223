package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
	dniRe        = regexp.MustCompile(`^\d{8}$`)
	ceRe         = regexp.MustCompile(`^[A-Za-z0-9]{9,12}$`)
	passportRe   = regexp.MustCompile(`^[A-Za-z]{1,2}\d{6,8}$`)
)

// New returns a validator with the checkout-form rules registered: card
// number, expiry, CVV length and the document-type dependent number format.
func New() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("cardnumber", validCardNumber)
	_ = v.RegisterValidation("cardexpiry", validCardExpiry)
	_ = v.RegisterValidation("len3or4", validCVVLength)

	v.RegisterStructValidation(checkoutStructLevel, models.CheckoutRequest{})

	return v
}

func validCardNumber(fl validator.FieldLevel) bool {
	num := strings.ReplaceAll(fl.Field().String(), " ", "")

	return cardNumberRe.MatchString(num)
}

func validCardExpiry(fl validator.FieldLevel) bool {
	return CardExpiryInFuture(fl.Field().String(), time.Now())
}

func validCVVLength(fl validator.FieldLevel) bool {
	return cvvRe.MatchString(fl.Field().String())
}

// checkoutStructLevel checks the document number against the format of the
// selected document type. Rejecting mismatched pairs is what makes a stale
// number from a previously selected type impossible to submit.
func checkoutStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(models.CheckoutRequest)

	if req.DocumentNumber == "" {
		return // required is reported by the field rule
	}

	if !ValidDocumentNumber(req.DocumentType, req.DocumentNumber) {
		sl.ReportError(req.DocumentNumber, "DocumentNumber", "DocumentNumber", "docnumber", string(req.DocumentType))
	}
}

// CardExpiryInFuture parses MM/YY and requires the end of that month to be
// strictly after now.
func CardExpiryInFuture(expiry string, now time.Time) bool {
	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}

	// first instant of the following month == end of the expiry month
	endOfMonth := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	return endOfMonth.After(now.UTC())
}

// ValidDocumentNumber applies the per-type format rule: DNI is 8 digits, CE
// is 9-12 alphanumerics, a passport is 1-2 letters followed by 6-8 digits.
func ValidDocumentNumber(docType models.DocumentType, number string) bool {
	switch docType {
	case models.DocumentTypeDNI:
		return dniRe.MatchString(number)
	case models.DocumentTypeCE:
		return ceRe.MatchString(number)
	case models.DocumentTypePassport:
		return passportRe.MatchString(number)
	default:
		return false
	}
}
