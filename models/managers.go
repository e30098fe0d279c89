package models

import "gorm.io/gorm"

// Default listing order for posts. Kept as-is from the product's observed
// behavior: drafts sort before published posts, oldest first.
const defaultPostOrder = "status ASC, publish ASC"

// ListAll returns every post, default-ordered.
func ListAll(db *gorm.DB) ([]Post, error) {
	var posts []Post
	err := db.Order(defaultPostOrder).Find(&posts).Error
	return posts, err
}

// ListPublished returns only posts with status "published", default-ordered.
func ListPublished(db *gorm.DB) ([]Post, error) {
	var posts []Post
	err := db.Where("status = ?", StatusPublished).Order(defaultPostOrder).Find(&posts).Error
	return posts, err
}

// ActiveComments returns the visible comments of a post in chronological
// order.
func ActiveComments(db *gorm.DB, postID uint) ([]Comment, error) {
	var comments []Comment
	err := db.Where("post_id = ? AND active = ?", postID, true).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// DeletePost removes a post together with every comment referencing it. The
// two deletes run in one transaction so no orphan comments survive.
func DeletePost(db *gorm.DB, postID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Post{}, postID).Error
	})
}
