// Package trade drives offline-meetup negotiations between a buyer and
// a seller: inquiry, agreement with a short verification code, and the
// completion or cancellation that ends the deal.
package trade

import (
	"context"
	"fmt"
	"log"
	"time"

	"secondhand-market-server/internal/chat"
	"secondhand-market-server/internal/errs"
	"secondhand-market-server/internal/models"

	"gorm.io/gorm"
)

// Service owns transaction state transitions. Chat is used to open the
// buyer-seller room and to drop system messages into it; those posts are
// best-effort and never roll a committed transition back.
type Service struct {
	DB   *gorm.DB
	Chat *chat.Service
}

// NewService creates a trade service.
func NewService(db *gorm.DB, chatSvc *chat.Service) *Service {
	return &Service{DB: db, Chat: chatSvc}
}

// CreateInquiryInput is the payload for opening a negotiation.
type CreateInquiryInput struct {
	ProductID   string             `json:"productId" binding:"required"`
	InquiryType models.InquiryType `json:"inquiryType" binding:"required,oneof=PURCHASE INFO"`
	Message     string             `json:"message"`
}

// AgreeOfflineInput carries the meeting details the seller proposes.
type AgreeOfflineInput struct {
	MeetingTime          *time.Time `json:"meetingTime"`
	MeetingLocationName  string     `json:"meetingLocationName" binding:"required"`
	MeetingDetailAddress string     `json:"meetingDetailAddress"`
	MeetingNotes         string     `json:"meetingNotes"`
	ContactName          string     `json:"contactName"`
	ContactPhone         string     `json:"contactPhone"`
}

// CompleteInput carries the buyer-presented verification code plus
// optional feedback.
type CompleteInput struct {
	Code     string `json:"code" binding:"required,len=4,numeric"`
	Feedback string `json:"feedback"`
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=5"`
}

// CancelInput carries the cancellation reason.
type CancelInput struct {
	Reason string `json:"reason" binding:"required"`
}

// AgreeOfflineResult is returned to the seller only. The verification
// code never appears in room messages or in responses to the buyer.
type AgreeOfflineResult struct {
	Transaction  *models.Transaction `json:"transaction"`
	Code         string              `json:"code"`
	CodeExpires  time.Time           `json:"codeExpiresAt"`
	ContactPhone string              `json:"contactPhone,omitempty"`
}

// CreateInquiry opens a negotiation on a purchasable product, reusing or
// creating the buyer-seller room, and posts the opening message there.
func (s *Service) CreateInquiry(ctx context.Context, buyerID string, in CreateInquiryInput) (*models.Transaction, error) {
	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, "id = ?", in.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("product %s not found", in.ProductID)
		}
		return nil, err
	}
	if !product.Purchasable() {
		return nil, errs.InvalidStatef("product %s is not available", in.ProductID)
	}
	if product.SellerID == buyerID {
		return nil, errs.Validationf("cannot inquire about your own listing")
	}

	var existing models.Transaction
	err := s.DB.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ? AND status <> ?",
			buyerID, in.ProductID, models.TransactionStatusCancelled).
		First(&existing).Error
	if err == nil {
		return nil, errs.Conflictf("an open transaction already exists for this product")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	room, err := s.Chat.GetOrCreateRoom(ctx, buyerID, product.SellerID)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		BuyerID:     buyerID,
		SellerID:    product.SellerID,
		ProductID:   product.ID,
		RoomID:      room.ID,
		Status:      models.TransactionStatusInquiry,
		InquiryType: in.InquiryType,
		Price:       product.Price,
	}
	if err := s.DB.WithContext(ctx).Create(&tx).Error; err != nil {
		return nil, err
	}

	opening := in.Message
	if opening == "" {
		opening = fmt.Sprintf("Hi, I'm interested in \"%s\".", product.Title)
	}
	if _, err := s.Chat.SendMessage(ctx, room.ID, buyerID, chat.SendMessageInput{
		Kind:    models.MessageKindText,
		Content: opening,
	}); err != nil {
		log.Printf("trade: opening message for transaction %s failed: %v", tx.ID, err)
	}

	return &tx, nil
}

// AgreeOffline moves INQUIRY to AGREED: only the seller may agree, and
// agreement mints a fresh time-boxed verification code. The room is told
// that a code exists; its value goes to the seller alone.
func (s *Service) AgreeOffline(ctx context.Context, transactionID, userID string, in AgreeOfflineInput) (*AgreeOfflineResult, error) {
	tx, err := s.load(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}
	if userID != tx.SellerID {
		return nil, errs.Forbiddenf("only the seller can agree to an offline meetup")
	}
	if tx.Status != models.TransactionStatusInquiry {
		return nil, errs.InvalidStatef("transaction is %s, expected INQUIRY", tx.Status)
	}

	now := time.Now()
	expiry := now.Add(models.CodeLifetime)
	tx.Status = models.TransactionStatusAgreed
	tx.Code = models.GenerateTransactionCode()
	tx.CodeExpiresAt = &expiry
	tx.MeetingTime = in.MeetingTime
	tx.MeetingLocationName = in.MeetingLocationName
	tx.MeetingDetailAddress = in.MeetingDetailAddress
	tx.MeetingNotes = in.MeetingNotes
	tx.ContactName = in.ContactName
	tx.ContactPhone = in.ContactPhone

	if err := s.DB.WithContext(ctx).Save(tx).Error; err != nil {
		return nil, err
	}

	s.postSystemMessage(ctx, tx, models.SystemTransactionAgreed,
		"Offline meetup agreed. A pickup code has been issued to the seller.",
		map[string]interface{}{
			"transactionId":       tx.PublicID(),
			"meetingTime":         tx.MeetingTime,
			"meetingLocationName": tx.MeetingLocationName,
			"codeExpiresAt":       tx.CodeExpiresAt,
		})

	return &AgreeOfflineResult{
		Transaction:  tx,
		Code:         tx.Code,
		CodeExpires:  expiry,
		ContactPhone: MaskPhone(tx.ContactPhone),
	}, nil
}

// Complete moves AGREED to COMPLETED when the buyer-presented code
// matches and has not expired, and marks the product sold in the same
// database transaction. A wrong or expired code leaves the state AGREED.
func (s *Service) Complete(ctx context.Context, transactionID, userID string, in CompleteInput) (*models.Transaction, error) {
	tx, err := s.load(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}
	if userID != tx.SellerID {
		return nil, errs.Forbiddenf("only the seller can complete the transaction")
	}
	if tx.Status != models.TransactionStatusAgreed {
		return nil, errs.InvalidStatef("transaction is %s, expected AGREED", tx.Status)
	}
	now := time.Now()
	if tx.CodeExpired(now) {
		return nil, errs.Validationf("pickup code has expired")
	}
	if !tx.CodeMatches(in.Code) {
		return nil, errs.Validationf("pickup code does not match")
	}

	tx.Status = models.TransactionStatusCompleted
	tx.CompletedAt = &now
	tx.Feedback = in.Feedback
	tx.Rating = in.Rating

	err = s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Save(tx).Error; err != nil {
			return err
		}
		return db.Model(&models.Product{}).Where("id = ?", tx.ProductID).
			Update("status", models.ProductStatusSold).Error
	})
	if err != nil {
		return nil, err
	}

	s.postSystemMessage(ctx, tx, models.SystemTransactionCompleted,
		"Transaction completed. The item has been handed over.",
		map[string]interface{}{
			"transactionId": tx.PublicID(),
			"completedAt":   tx.CompletedAt,
		})

	return tx, nil
}

// Cancel ends a non-terminal negotiation. Either party may cancel from
// INQUIRY or AGREED; terminal states stay put.
func (s *Service) Cancel(ctx context.Context, transactionID, userID string, in CancelInput) (*models.Transaction, error) {
	tx, err := s.load(ctx, transactionID, userID)
	if err != nil {
		return nil, err
	}
	if tx.Terminal() {
		return nil, errs.InvalidStatef("transaction is already %s", tx.Status)
	}

	now := time.Now()
	tx.Status = models.TransactionStatusCancelled
	tx.CancelReason = in.Reason
	tx.CancelledBy = userID
	tx.CancelledAt = &now
	if userID == tx.BuyerID {
		tx.CancelType = models.CancelTypeBuyer
	} else {
		tx.CancelType = models.CancelTypeSeller
	}

	if err := s.DB.WithContext(ctx).Save(tx).Error; err != nil {
		return nil, err
	}

	s.postSystemMessage(ctx, tx, models.SystemTransactionCancelled,
		"Transaction cancelled: "+in.Reason,
		map[string]interface{}{
			"transactionId": tx.PublicID(),
			"cancelType":    tx.CancelType,
		})

	return tx, nil
}

// List returns a page of the caller's transactions. Role narrows to
// purchases ("buy"), sales ("sell"), or both (anything else); a non-empty
// status filters further.
func (s *Service) List(ctx context.Context, userID, role string, status models.TransactionStatus, page, size int) ([]models.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	query := s.DB.WithContext(ctx).Model(&models.Transaction{})
	switch role {
	case "buy":
		query = query.Where("buyer_id = ?", userID)
	case "sell":
		query = query.Where("seller_id = ?", userID)
	default:
		query = query.Where("buyer_id = ? OR seller_id = ?", userID, userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txs []models.Transaction
	if err := query.Preload("Product").
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// Get loads a transaction for one of its parties.
func (s *Service) Get(ctx context.Context, transactionID, userID string) (*models.Transaction, error) {
	return s.load(ctx, transactionID, userID)
}

func (s *Service) load(ctx context.Context, transactionID, userID string) (*models.Transaction, error) {
	id := models.ParseTransactionID(transactionID)
	var tx models.Transaction
	if err := s.DB.WithContext(ctx).Preload("Product").First(&tx, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFoundf("transaction %s not found", transactionID)
		}
		return nil, err
	}
	if !tx.IsParty(userID) {
		return nil, errs.Forbiddenf("user is not a party to transaction %s", transactionID)
	}
	return &tx, nil
}

func (s *Service) postSystemMessage(ctx context.Context, tx *models.Transaction, systemType models.SystemMessageType, content string, data map[string]interface{}) {
	if tx.RoomID == "" {
		return
	}
	if _, err := s.Chat.PostSystemMessage(ctx, tx.RoomID, systemType, content, data); err != nil {
		log.Printf("trade: system message for transaction %s failed: %v", tx.ID, err)
	}
}

// MaskPhone hides the middle digits of a phone number for display,
// keeping the first three and last four.
func MaskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-4:]
}
