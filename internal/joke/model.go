package joke

import "time"

const DefaultRating = 1500.0

type Joke struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"not null" json:"content"`
	Rating    float64   `gorm:"column:elo_rating;not null;default:1500;index:idx_elo_rating,sort:desc" json:"elo_rating"`
	CreatedAt time.Time `gorm:"index:idx_created_at,sort:desc" json:"created_at"`
}
