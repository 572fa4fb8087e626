package repository

import (
	"context"

	"github.com/wfunc/maze-game/internal/models"
	"gorm.io/gorm"
)

// TransactionRepository 交易流水仓储接口
type TransactionRepository interface {
	BaseRepository
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Transaction, error)
	FindByType(ctx context.Context, userID uint, txType string, pagination *Pagination) ([]*models.Transaction, error)
}

// transactionRepo 交易流水仓储实现
type transactionRepo struct {
	*BaseRepo
}

// NewTransactionRepository 创建交易流水仓储
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建交易流水
func (r *transactionRepo) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// FindByUserID 查找用户的交易流水（分页）
func (r *transactionRepo) FindByUserID(ctx context.Context, userID uint, pagination *Pagination) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ?", userID)

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

// FindByType 按类型查找用户交易流水（分页）
func (r *transactionRepo) FindByType(ctx context.Context, userID uint, txType string, pagination *Pagination) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	query := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("user_id = ? AND transaction_type = ?", userID, txType)

	var total int64
	query.Count(&total)
	pagination.Total = total

	err := query.
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}
