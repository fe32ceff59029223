package models

// DocumentType selects the identity-document format the payer entered.
type DocumentType string

const (
	DocumentTypeDNI      DocumentType = "DNI"
	DocumentTypeCE       DocumentType = "CE"
	DocumentTypePassport DocumentType = "Pasaporte"
)

// CheckoutRequest is the validated card form. DocumentNumber format depends
// on DocumentType and is checked by a struct-level validator; a number left
// over from a previously selected type is rejected, never silently accepted.
type CheckoutRequest struct {
	CardNumber     string       `json:"card_number" validate:"required,cardnumber"`
	CardExpiry     string       `json:"card_expiry" validate:"required,cardexpiry"`
	CVV            string       `json:"cvv" validate:"required,len3or4,numeric"`
	Email          string       `json:"email" validate:"required,email"`
	FullName       string       `json:"full_name" validate:"required,min=3"`
	Amount         float64      `json:"amount" validate:"required,gt=0"`
	DocumentType   DocumentType `json:"document_type" validate:"required,oneof=DNI CE Pasaporte"`
	DocumentNumber string       `json:"document_number" validate:"required"`
}

// PaymentResult exists only for a gateway-confirmed approval and is
// immutable once created.
type PaymentResult struct {
	OperationDate string `json:"operation_date"`
	TransactionID string `json:"transaction_id"`
}

type CheckoutResponse struct {
	OrderID string         `json:"order_id,omitempty"`
	Payment *PaymentResult `json:"payment"`
	Message string         `json:"message"`
}

// CompletionRequest is the merchant record-keeping payload. Field names
// follow the chain's endpoint contract.
type CompletionRequest struct {
	Email          string `json:"email"`
	Nombres        string `json:"nombres"`
	DocumentNumber string `json:"documentNumber"`
	OperationDate  string `json:"operationDate"`
	TransactionID  string `json:"transactionId"`
}

type CompletionResponse struct {
	CodigoRespuesta string `json:"codigoRespuesta"`
}
