package response

type BillingStatusResponse struct {
	AccountStatus      string `json:"account_status"`
	Linked             bool   `json:"linked"`
	ConnectedAccountID string `json:"connected_account_id,omitempty"`
	CanCreateListings  bool   `json:"can_create_listings"`
}

// RedirectResponse carries a gateway hosted URL the client should navigate to.
type RedirectResponse struct {
	URL string `json:"url"`
}
