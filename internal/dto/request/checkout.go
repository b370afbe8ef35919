package request

type CheckoutRequest struct {
	ListingID int64  `json:"listing_id" validate:"required,min=1"`
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
}

type DeletePhotoRequest struct {
	URL string `json:"url" validate:"required,url"`
}
