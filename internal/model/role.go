package model

import "gorm.io/gorm"

type Role struct {
	gorm.Model
	Name  string `gorm:"column:name;size:50;uniqueIndex;not null"`
	Users []User `gorm:"many2many:user_roles"`
}
