package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// TransactionStatus represents the negotiation state
type TransactionStatus string

const (
	TransactionStatusInquiry   TransactionStatus = "INQUIRY"
	TransactionStatusAgreed    TransactionStatus = "AGREED"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// InquiryType distinguishes purchase intent from a plain question
type InquiryType string

const (
	InquiryTypePurchase InquiryType = "PURCHASE"
	InquiryTypeInfo     InquiryType = "INFO"
)

// CancelType records which side cancelled
type CancelType string

const (
	CancelTypeBuyer  CancelType = "BUYER_CANCEL"
	CancelTypeSeller CancelType = "SELLER_CANCEL"
)

// CodeLifetime is how long a freshly issued verification code stays valid.
const CodeLifetime = 24 * time.Hour

// TransactionIDPrefix is prepended to transaction ids on the wire.
const TransactionIDPrefix = "tx_"

// Transaction drives a per-(buyer, seller, product) negotiation from
// INQUIRY through AGREED to COMPLETED or CANCELLED. The verification
// code is only meaningful while the status is AGREED and the expiry has
// not passed.
type Transaction struct {
	BaseModel
	BuyerID   string `gorm:"size:36;index;not null" json:"buyerId"`
	SellerID  string `gorm:"size:36;index;not null" json:"sellerId"`
	ProductID string `gorm:"size:36;index;not null" json:"productId"`
	RoomID    string `gorm:"size:36;index" json:"roomId"`

	Status      TransactionStatus `gorm:"size:20;not null" json:"status"`
	InquiryType InquiryType       `gorm:"size:20" json:"inquiryType"`
	Price       float64           `gorm:"type:decimal(10,2)" json:"price"`

	Code             string     `gorm:"size:4" json:"-"`
	CodeExpiresAt    *time.Time `json:"codeExpiresAt,omitempty"`
	CodeRefreshCount int        `gorm:"default:0" json:"-"`

	MeetingTime          *time.Time `json:"meetingTime,omitempty"`
	MeetingLocationName  string     `gorm:"size:100" json:"meetingLocationName,omitempty"`
	MeetingDetailAddress string     `gorm:"size:255" json:"meetingDetailAddress,omitempty"`
	MeetingNotes         string     `gorm:"type:text" json:"meetingNotes,omitempty"`
	ContactName          string     `gorm:"size:50" json:"contactName,omitempty"`
	ContactPhone         string     `gorm:"size:20" json:"-"`

	CancelReason string     `gorm:"size:255" json:"cancelReason,omitempty"`
	CancelType   CancelType `gorm:"size:20" json:"cancelType,omitempty"`
	CancelledBy  string     `gorm:"size:36" json:"cancelledBy,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`

	Feedback    string     `gorm:"type:text" json:"feedback,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Relations
	Buyer   User    `gorm:"foreignKey:BuyerID" json:"-"`
	Seller  User    `gorm:"foreignKey:SellerID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

// PublicID returns the prefixed textual id exposed to clients.
func (t *Transaction) PublicID() string {
	return TransactionIDPrefix + t.ID
}

// ParseTransactionID strips the wire prefix from a client-supplied
// transaction id. Bare ids are accepted as-is.
func ParseTransactionID(publicID string) string {
	return strings.TrimPrefix(publicID, TransactionIDPrefix)
}

// GenerateTransactionCode returns a 4-character numeric code with
// leading zeros preserved.
func GenerateTransactionCode() string {
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

// IsParty reports whether the given user is the buyer or the seller.
func (t *Transaction) IsParty(userID string) bool {
	return userID == t.BuyerID || userID == t.SellerID
}

// Terminal reports whether the transaction reached a final state.
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusCancelled
}

// CodeMatches reports whether the supplied code equals the stored one.
func (t *Transaction) CodeMatches(code string) bool {
	return t.Code != "" && t.Code == code
}

// CodeExpired reports whether the stored code is past its expiry at the
// given instant. A transaction without an expiry counts as expired.
func (t *Transaction) CodeExpired(now time.Time) bool {
	return t.CodeExpiresAt == nil || !now.Before(*t.CodeExpiresAt)
}
