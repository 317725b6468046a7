package repository

import (
	"errors"

	"myai/internal/db"
	"myai/internal/model"

	"gorm.io/gorm"
)

type WatchPathRepository struct{}

func NewWatchPathRepository() *WatchPathRepository {
	return &WatchPathRepository{}
}

func (r *WatchPathRepository) Add(path string, recursive bool) (model.WatchPath, error) {
	wp := model.WatchPath{
		Path:      path,
		Recursive: recursive,
	}

	return wp, db.DB.Create(&wp).Error
}

func (r *WatchPathRepository) GetAll() ([]model.WatchPath, error) {
	var paths []model.WatchPath
	return paths, db.DB.Find(&paths).Error
}

func (r *WatchPathRepository) DeleteByPath(path string) error {
	res := db.DB.Where("path = ?", path).Delete(&model.WatchPath{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return errors.New("watch path not found")
	}

	return nil
}

func (r *WatchPathRepository) Exists(path string) (bool, error) {
	var wp model.WatchPath
	err := db.DB.Where("path = ?", path).First(&wp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	return err == nil, err
}
