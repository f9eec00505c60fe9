package model

import "time"

// Author 作者，内嵌在文章中
type Author struct {
	FirstName string `json:"firstName" bson:"firstName" gorm:"type:varchar(100);not null"`
	LastName  string `json:"lastName" bson:"lastName" gorm:"type:varchar(100);not null"`
}

// FullName 展示用姓名
func (a Author) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Post 博客文章
type Post struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Title     string    `json:"title" bson:"title" gorm:"type:varchar(255);not null"`
	Author    Author    `json:"author" bson:"author" gorm:"embedded;embeddedPrefix:author_"`
	Content   string    `json:"content" bson:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created" bson:"created" gorm:"index:idx_post_created"`
	UpdatedAt time.Time `json:"-" bson:"updated"`
}

func (Post) TableName() string { return "posts" }

// PostFields 部分更新，nil 表示不修改
type PostFields struct {
	Title           *string
	Content         *string
	AuthorFirstName *string
	AuthorLastName  *string
}

// Empty 没有任何需要修改的字段
func (f PostFields) Empty() bool {
	return f.Title == nil && f.Content == nil && f.AuthorFirstName == nil && f.AuthorLastName == nil
}

// Apply 把非空字段写入 p
func (f PostFields) Apply(p *Post) {
	if f.Title != nil {
		p.Title = *f.Title
	}
	if f.Content != nil {
		p.Content = *f.Content
	}
	if f.AuthorFirstName != nil {
		p.Author.FirstName = *f.AuthorFirstName
	}
	if f.AuthorLastName != nil {
		p.Author.LastName = *f.AuthorLastName
	}
}
