package paymentprovider

// CreateInvoiceRequest — запрос на создание счёта в NOWPayments.
type CreateInvoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description,omitempty"`
	IPNCallbackURL   string  `json:"ipn_callback_url,omitempty"`
	SuccessURL       string  `json:"success_url,omitempty"`
	CancelURL        string  `json:"cancel_url,omitempty"`
}

// CreateInvoiceResponse — ответ NOWPayments на создание счёта.
type CreateInvoiceResponse struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	InvoiceURL string `json:"invoice_url"`
	// PaymentURL встречается в ответах эндпоинта /v1/payment.
	PaymentURL string `json:"payment_url"`
}

// RedirectURL возвращает ссылку для перенаправления пользователя на оплату.
func (r *CreateInvoiceResponse) RedirectURL() string {
	if r.InvoiceURL != "" {
		return r.InvoiceURL
	}
	return r.PaymentURL
}
