package cachekeys

// Keys of whole collections.
const (
	Products         = "products"
	FeaturedProducts = "featured_products"
	Categories       = "categories"
	Reviews          = "reviews"
	PendingReviews   = "pending_reviews"
	ContactMessages  = "contact_messages"
	Inventory        = "inventory"
	Analytics        = "analytics"
	DashboardStats   = "dashboard_stats"
)

// Key prefixes of single records and filtered collections.
const (
	productPrefix            = "product_"
	productsByCategoryPrefix = "products_category_"
	categoryPrefix           = "category_"
	productReviewsPrefix     = "reviews_product_"
	contactMessagePrefix     = "contact_message_"
	inventoryItemPrefix      = "inventory_"
	analyticsRangePrefix     = "analytics_"
)

// Product is the key of a single product, e.g. "product_42".
func Product(id string) string { return productPrefix + id }

// ProductsByCategory is the key of the product listing of one category.
func ProductsByCategory(categoryID string) string { return productsByCategoryPrefix + categoryID }

// Category is the key of a single category.
func Category(id string) string { return categoryPrefix + id }

// ProductReviews is the key of the reviews of one product.
func ProductReviews(productID string) string { return productReviewsPrefix + productID }

// ContactMessage is the key of a single contact message.
func ContactMessage(id string) string { return contactMessagePrefix + id }

// InventoryItem is the key of the stock record of one product.
func InventoryItem(productID string) string { return inventoryItemPrefix + productID }

// AnalyticsRange is the key of an analytics report for a named range such as "7d".
func AnalyticsRange(r string) string { return analyticsRangePrefix + r }
