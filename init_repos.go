// Package main: Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository aynı *sql.DB bağlantısını alır ve interface döner.
package main

import (
	"database/sql"

	"github.com/tokyoedge/portal/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Yeni repository eklendiğinde sadece struct + initRepositories güncellenir.
type Repositories struct {
	User        repository.UserRepository
	Session     repository.SessionRepository
	Application repository.ApplicationRepository
	Setting     repository.SettingRepository
	Category    repository.CategoryRepository
	News        repository.NewsRepository
	Staff       repository.StaffRepository
	Dashboard   repository.DashboardRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Go'nun sql.DB'si thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:        repository.NewSQLiteUserRepo(conn),
		Session:     repository.NewSQLiteSessionRepo(conn),
		Application: repository.NewSQLiteApplicationRepo(conn),
		Setting:     repository.NewSQLiteSettingRepo(conn),
		Category:    repository.NewSQLiteCategoryRepo(conn),
		News:        repository.NewSQLiteNewsRepo(conn),
		Staff:       repository.NewSQLiteStaffRepo(conn),
		Dashboard:   repository.NewSQLiteDashboardRepo(conn),
	}
}
