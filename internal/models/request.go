package models

type StartScanRequest struct {
	// Capture method tag, e.g. "photo" or "video". Free-form.
	Method string `json:"method,omitempty" example:"photo"`
	// Storage paths or URLs of the capture images. At least one required.
	Images []string `json:"images"`
	// Optional capture preferences passed through to the session.
	Preferences map[string]any `json:"preferences,omitempty"`
}

type StartTryOnRequest struct {
	AvatarID  string       `json:"avatarId"`
	ProductID string       `json:"productId"`
	Options   TryOnOptions `json:"options,omitempty"`
}

type BatchTryOnRequest struct {
	AvatarID string `json:"avatarId"`
	// At most 5 products per batch.
	ProductIDs []string     `json:"productIds"`
	Options    TryOnOptions `json:"options,omitempty"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty" example:"M"`
	Color     string `json:"color,omitempty" example:"black"`
	Quantity  int    `json:"quantity" example:"1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty" example:"jackets"`
	Price       float64  `json:"price" example:"49.99"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Stock       int      `json:"stock" example:"10"`
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shippingAddress,omitempty"`
}

type CreatePaymentRequest struct {
	OrderID string `json:"orderId"`
	// One of: card, paypal, apple_pay.
	Method string `json:"method" example:"card"`
}

type AddClosetItemRequest struct {
	ProductID string `json:"productId"`
	// One of: purchase, tryon, manual. Defaults to manual.
	Source string `json:"source,omitempty" example:"manual"`
}

type UpdateProfileRequest struct {
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Gender      string         `json:"gender,omitempty"`
	HeightCm    float64        `json:"heightCm,omitempty"`
	WeightKg    float64        `json:"weightKg,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}
