package payu

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	currency       = "PEN"
	paymentCountry = "PE"
	language       = "es"
	command        = "SUBMIT_TRANSACTION"
	txType         = "AUTHORIZATION_AND_CAPTURE"
)

// dniTypeMap translates the storefront document type to the gateway's codes.
var dniTypeMap = map[string]string{
	"DNI":       "CC",
	"CE":        "CE",
	"Pasaporte": "PASSPORT",
}

// limaAddress is the fixed regional default: the checkout flow collects no
// address, the gateway requires one.
var limaAddress = address{
	Street1:    "Lima",
	Street2:    "",
	City:       "Lima",
	State:      "Lima y Callao",
	Country:    "PE",
	PostalCode: "15000",
	Phone:      "00000000",
}

type submitRequest struct {
	Language    string      `json:"language"`
	Command     string      `json:"command"`
	Merchant    merchant    `json:"merchant"`
	Transaction transaction `json:"transaction"`
	Test        bool        `json:"test"`
}

type merchant struct {
	APIKey   string `json:"apiKey"`
	APILogin string `json:"apiLogin"`
}

type address struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

type txValue struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type additionalValues struct {
	TXValue txValue `json:"TX_VALUE"`
}

type buyer struct {
	MerchantBuyerID string  `json:"merchantBuyerId"`
	FullName        string  `json:"fullName"`
	EmailAddress    string  `json:"emailAddress"`
	ContactPhone    string  `json:"contactPhone"`
	DNINumber       string  `json:"dniNumber"`
	ShippingAddress address `json:"shippingAddress"`
}

type payer struct {
	MerchantPayerID string  `json:"merchantPayerId"`
	FullName        string  `json:"fullName"`
	EmailAddress    string  `json:"emailAddress"`
	ContactPhone    string  `json:"contactPhone"`
	DNIType         string  `json:"dniType"`
	DNINumber       string  `json:"dniNumber"`
	BillingAddress  address `json:"billingAddress"`
}

type creditCard struct {
	Number         string `json:"number"`
	SecurityCode   string `json:"securityCode"`
	ExpirationDate string `json:"expirationDate"`
	Name           string `json:"name"`
}

type order struct {
	AccountID        string           `json:"accountId"`
	ReferenceCode    string           `json:"referenceCode"`
	Description      string           `json:"description"`
	Language         string           `json:"language"`
	Signature        string           `json:"signature"`
	AdditionalValues additionalValues `json:"additionalValues"`
	Buyer            buyer            `json:"buyer"`
	ShippingAddress  address          `json:"shippingAddress"`
}

type transaction struct {
	Order           order          `json:"order"`
	Payer           payer          `json:"payer"`
	CreditCard      creditCard     `json:"creditCard"`
	ExtraParameters map[string]any `json:"extraParameters"`
	Type            string         `json:"type"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentCountry  string         `json:"paymentCountry"`
	DeviceSessionID string         `json:"deviceSessionId"`
	IPAddress       string         `json:"ipAddress"`
	Cookie          string         `json:"cookie"`
	UserAgent       string         `json:"userAgent"`
}

func (c *payuClient) buildRequest(attempt *Attempt, req *PaymentRequest) *submitRequest {

	cardNumber := strings.ReplaceAll(req.CardNumber, " ", "")

	dniType, ok := dniTypeMap[req.DocumentType]
	if !ok {
		dniType = "CC"
	}

	return &submitRequest{
		Language: language,
		Command:  command,
		Merchant: merchant{APIKey: c.cfg.APIKey, APILogin: c.cfg.APILogin},
		Transaction: transaction{
			Order: order{
				AccountID:     c.cfg.AccountID,
				ReferenceCode: attempt.ReferenceCode,
				Description:   "Compra en CineStore",
				Language:      language,
				Signature:     Signature(c.cfg.APIKey, c.cfg.MerchantID, attempt.ReferenceCode, req.Amount, currency),
				AdditionalValues: additionalValues{
					TXValue: txValue{Value: req.Amount, Currency: currency},
				},
				Buyer: buyer{
					MerchantBuyerID: "1",
					FullName:        req.FullName,
					EmailAddress:    req.Email,
					ContactPhone:    "00000000",
					DNINumber:       req.DocumentNumber,
					ShippingAddress: limaAddress,
				},
				ShippingAddress: limaAddress,
			},
			Payer: payer{
				MerchantPayerID: "1",
				FullName:        req.FullName,
				EmailAddress:    req.Email,
				ContactPhone:    "00000000",
				DNIType:         dniType,
				DNINumber:       req.DocumentNumber,
				BillingAddress:  limaAddress,
			},
			CreditCard: creditCard{
				Number:         cardNumber,
				SecurityCode:   req.CVV,
				ExpirationDate: FormatExpiry(req.CardExpiry),
				Name:           req.FullName,
			},
			ExtraParameters: map[string]any{"INSTALLMENTS_NUMBER": 1},
			Type:            txType,
			PaymentMethod:   DetectPaymentMethod(cardNumber),
			PaymentCountry:  paymentCountry,
			DeviceSessionID: "sess-" + uuid.NewString(),
			IPAddress:       "127.0.0.1",
			Cookie:          "",
			UserAgent:       "cinema-storefront-platform/1.0",
		},
		Test: c.cfg.Test,
	}
}

// Signature is the keyed request hash the gateway verifies:
// MD5(apiKey~merchantId~referenceCode~amount~currency). Field order and the
// amount formatting must match the gateway contract exactly.
func Signature(apiKey, merchantID, referenceCode string, amount float64, curr string) string {
	plain := strings.Join([]string{apiKey, merchantID, referenceCode, FormatAmount(amount), curr}, "~")
	sum := md5.Sum([]byte(plain))

	return hex.EncodeToString(sum[:])
}

// FormatAmount renders the amount the way it is signed: shortest decimal
// representation, no trailing zeros.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// DetectPaymentMethod infers the card brand from the leading digits.
func DetectPaymentMethod(cardNumber string) string {
	num := strings.ReplaceAll(cardNumber, " ", "")

	switch {
	case strings.HasPrefix(num, "4"):
		return "VISA"
	case hasPrefixInRange(num, 51, 55), hasPrefixInRange(num, 22, 27):
		return "MASTERCARD"
	case strings.HasPrefix(num, "34"), strings.HasPrefix(num, "37"):
		return "AMEX"
	case strings.HasPrefix(num, "6"):
		return "DINERS"
	default:
		return "VISA"
	}
}

func hasPrefixInRange(num string, lo, hi int) bool {
	if len(num) < 2 {
		return false
	}

	prefix, err := strconv.Atoi(num[:2])
	if err != nil {
		return false
	}

	return prefix >= lo && prefix <= hi
}

// FormatExpiry converts the form's MM/YY into the gateway's YYYY/MM.
func FormatExpiry(expiry string) string {
	parts := strings.SplitN(expiry, "/", 2)
	if len(parts) != 2 {
		return expiry
	}

	return fmt.Sprintf("20%s/%s", parts[1], parts[0])
}
