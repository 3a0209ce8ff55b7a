package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/subs_go_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByID 不存在时返回 gorm.ErrRecordNotFound
func (r *SubscriptionRepository) FindByID(id int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) FindByUserID(userID int64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) FindAll() ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Order("id ASC").Find(&subs).Error
	return subs, err
}

// FindActiveExpiredBefore 查询已过期但仍为 ACTIVE 的订阅，按过期时间升序
func (r *SubscriptionRepository) FindActiveExpiredBefore(t time.Time, limit int) ([]model.Subscription, error) {
	var subs []model.Subscription
	query := r.db.Where("status = ? AND expiration_date < ?", model.StatusActive, t).
		Order("expiration_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&subs).Error
	return subs, err
}

// Insert 插入新记录并回填 ID
func (r *SubscriptionRepository) Insert(sub *model.Subscription) (*model.Subscription, error) {
	if err := r.db.Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Update 按 ID 覆盖全部字段，返回受影响行数
func (r *SubscriptionRepository) Update(sub *model.Subscription) (int64, error) {
	result := r.db.Model(&model.Subscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
		"user_id":         sub.UserID,
		"name":            sub.Name,
		"provider":        sub.Provider,
		"expiration_date": sub.ExpirationDate,
		"status":          sub.Status,
	})
	return result.RowsAffected, result.Error
}

// Delete 返回是否找到并删除
func (r *SubscriptionRepository) Delete(id int64) (bool, error) {
	result := r.db.Where("id = ?", id).Delete(&model.Subscription{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Upsert 以 (user_id, provider) 为键插入或覆盖，返回落库后的记录
func (r *SubscriptionRepository) Upsert(sub *model.Subscription) (*model.Subscription, error) {
	row := *sub
	row.ID = 0

	var persisted model.Subscription
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "expiration_date", "status"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		// 冲突更新时各驱动回填的 ID 不可靠，重新按自然键读取
		return tx.Where("user_id = ? AND provider = ?", sub.UserID, sub.Provider).First(&persisted).Error
	})
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}

// CountInactiveExpiredBefore 统计过期时间早于 t 的 CANCELED/EXPIRED 订阅数
func (r *SubscriptionRepository) CountInactiveExpiredBefore(t time.Time) (int64, error) {
	var count int64
	err := r.inactiveExpiredBefore(t).Model(&model.Subscription{}).Count(&count).Error
	return count, err
}

// FindInactiveExpiredBefore 按 ID 升序分批查询过期时间早于 t 的 CANCELED/EXPIRED 订阅
func (r *SubscriptionRepository) FindInactiveExpiredBefore(t time.Time, limit int) ([]model.Subscription, error) {
	var subs []model.Subscription
	query := r.inactiveExpiredBefore(t).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&subs).Error
	return subs, err
}

// DeleteByIDs 批量删除，返回删除行数
func (r *SubscriptionRepository) DeleteByIDs(ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ?", ids).Delete(&model.Subscription{})
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepository) inactiveExpiredBefore(t time.Time) *gorm.DB {
	return r.db.Where("status IN ? AND expiration_date < ?",
		[]model.Status{model.StatusCanceled, model.StatusExpired}, t)
}
