package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TopProduct struct {
	Product primitive.ObjectID `bson:"_id" json:"product"`
	Name    string             `bson:"name" json:"name"`
	Sales   int64              `bson:"sales" json:"sales"`
	Revenue int64              `bson:"revenue" json:"revenue"`
}

// RecentOrder is an order joined with the name and email of its owner.
type RecentOrder struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	UserName       string             `bson:"userName" json:"userName"`
	UserEmail      string             `bson:"userEmail" json:"userEmail"`
	Total          int64              `bson:"total" json:"total"`
	PaymentStatus  PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	ShippingStatus ShippingStatus     `bson:"shippingStatus" json:"shippingStatus"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// Window totals for orders created at or after a point in time.
type OrderWindow struct {
	Count   int64 `bson:"count"`
	Revenue int64 `bson:"revenue"`
}

type Summary struct {
	TotalUsers        int64         `json:"totalUsers"`
	TotalOrders       int64         `json:"totalOrders"`
	TotalSales        int64         `json:"totalSales"`
	TotalCategories   int64         `json:"totalCategories"`
	TotalProducts     int64         `json:"totalProducts"`
	RecentOrders      []RecentOrder `json:"recentOrders"`
	TopProducts       []TopProduct  `json:"topProducts"`
	NewOrdersToday    int64         `json:"newOrdersToday"`
	RevenueToday      int64         `json:"revenueToday"`
	NewCustomersToday int64         `json:"newCustomersToday"`
	GeneratedAt       time.Time     `json:"generatedAt"`
}
