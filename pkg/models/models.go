package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency kinds
const (
	CurrencyTypeFiat   = "FIAT"
	CurrencyTypeCrypto = "CRYPTO"
)

// Listing statuses
const (
	ListingStatusOpen   = "OPEN"
	ListingStatusFilled = "FILLED"
)

// Transfer kinds and statuses
const (
	CryptoTransferInternal = "INTERNAL"
	CryptoTransferExternal = "EXTERNAL"

	FiatTransferDeposit  = "DEPOSIT"
	FiatTransferWithdraw = "WITHDRAW"

	TransferStatusCompleted = "COMPLETED"
)

// User represents a user in the system
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex" validate:"required,min=3,max=30,alphanum"`
	Email     string    `json:"email" gorm:"uniqueIndex" validate:"required,email,max=254"`
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Currency represents a fiat or crypto currency supported by the platform
type Currency struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Type      string    `json:"currency_type" validate:"required,oneof=FIAT CRYPTO"` // FIAT, CRYPTO
	Code      string    `json:"currency_code" gorm:"uniqueIndex" validate:"required,min=2,max=10"`
	Name      string    `json:"currency_name" validate:"required,min=1,max=50"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wallet represents a user's balance for a single currency.
// There is at most one wallet per (user, currency).
type Wallet struct {
	ID         uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     uuid.UUID       `json:"user_id" gorm:"type:uuid;index;uniqueIndex:idx_wallet_user_currency"`
	CurrencyID uuid.UUID       `json:"currency_id" gorm:"type:uuid;uniqueIndex:idx_wallet_user_currency"`
	Balance    decimal.Decimal `json:"balance" gorm:"type:decimal(20,8);not null" validate:"min=0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Currency *Currency `json:"-" gorm:"foreignKey:CurrencyID"`
}

// Listing represents an open offer to sell a fixed crypto amount at a fixed
// unit price. The crypto is escrowed from the seller's wallet at creation,
// so Remaining is the escrow balance still for sale.
type Listing struct {
	ID                   uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	SellerFiatWalletID   uuid.UUID       `json:"seller_fiat_wallet_id" gorm:"type:uuid;index"`
	SellerCryptoWalletID uuid.UUID       `json:"seller_crypto_wallet_id" gorm:"type:uuid;index"`
	Price                decimal.Decimal `json:"price" gorm:"type:decimal(20,8);not null" validate:"gt=0"`
	Remaining            decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null" validate:"min=0"`
	Status               string          `json:"status" validate:"required,oneof=OPEN FILLED"` // OPEN, FILLED
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`

	SellerFiatWallet   *Wallet `json:"-" gorm:"foreignKey:SellerFiatWalletID"`
	SellerCryptoWallet *Wallet `json:"-" gorm:"foreignKey:SellerCryptoWalletID"`
}

// BuyFill is the immutable record of one buy executed against a listing
type BuyFill struct {
	ID                  uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	BuyerFiatWalletID   uuid.UUID       `json:"buyer_fiat_wallet_id" gorm:"type:uuid;index"`
	BuyerCryptoWalletID uuid.UUID       `json:"buyer_crypto_wallet_id" gorm:"type:uuid;index"`
	ListingID           uuid.UUID       `json:"listing_id" gorm:"type:uuid;index"`
	Price               decimal.Decimal `json:"price" gorm:"type:decimal(20,8);not null"`
	Amount              decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null"`
	BoughtAt            time.Time       `json:"bought_at"`

	BuyerFiatWallet   *Wallet `json:"-" gorm:"foreignKey:BuyerFiatWalletID"`
	BuyerCryptoWallet *Wallet `json:"-" gorm:"foreignKey:BuyerCryptoWalletID"`
}

// CryptoTransfer is the immutable record of a crypto movement. INTERNAL
// transfers carry a receiver wallet, EXTERNAL transfers carry an external
// address, never both.
type CryptoTransfer struct {
	ID               uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	SenderWalletID   uuid.UUID       `json:"sender_wallet_id" gorm:"type:uuid;index"`
	ReceiverWalletID *uuid.UUID      `json:"receiver_wallet_id" gorm:"type:uuid;index"`
	ExternalAddress  *string         `json:"external_address"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null"`
	Type             string          `json:"transaction_type" validate:"required,oneof=INTERNAL EXTERNAL"` // INTERNAL, EXTERNAL
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	SenderWallet   *Wallet `json:"-" gorm:"foreignKey:SenderWalletID"`
	ReceiverWallet *Wallet `json:"-" gorm:"foreignKey:ReceiverWalletID"`
}

// FiatTransfer is the immutable record of a fiat deposit or withdrawal
type FiatTransfer struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	WalletID      uuid.UUID       `json:"wallet_id" gorm:"type:uuid;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null"`
	Type          string          `json:"transaction_type" validate:"required,oneof=DEPOSIT WITHDRAW"` // DEPOSIT, WITHDRAW
	PaymentMethod *string         `json:"payment_method"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Wallet *Wallet `json:"-" gorm:"foreignKey:WalletID"`
}
