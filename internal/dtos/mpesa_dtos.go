package dtos

// MpesaC2BRequest is the Daraja C2B payload posted to both the
// validation and confirmation URLs. Field names are Safaricom's.
type MpesaC2BRequest struct {
	TransactionType   string `json:"TransactionType"`
	TransID           string `json:"TransID" validate:"required"`
	TransTime         string `json:"TransTime" validate:"required,len=14,numeric"`
	TransAmount       string `json:"TransAmount" validate:"required"`
	BusinessShortCode string `json:"BusinessShortCode"`
	BillRefNumber     string `json:"BillRefNumber"`
	InvoiceNumber     string `json:"InvoiceNumber"`
	OrgAccountBalance string `json:"OrgAccountBalance"`
	ThirdPartyTransID string `json:"ThirdPartyTransID"`
	MSISDN            string `json:"MSISDN" validate:"required"`
	FirstName         string `json:"FirstName"`
	MiddleName        string `json:"MiddleName"`
	LastName          string `json:"LastName"`
}

// MpesaC2BResponse is the acknowledgment envelope Daraja expects back.
type MpesaC2BResponse struct {
	ResultCode string `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
