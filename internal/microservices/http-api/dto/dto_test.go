package dto

import (
	"testing"

	"titlehub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, 1, 2, 5)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, int64(5), resp.Total)

	empty := NewPaginatedResponse[int](nil, 1, 20, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestFromTitleModel(t *testing.T) {
	year := 1999
	rating := 7.5
	title := models.Title{
		ID:       3,
		Name:     "The Matrix",
		Year:     &year,
		Rating:   &rating,
		Category: &models.Category{Name: "Film", Slug: "film"},
		Genres:   []models.Genre{{Name: "Sci-Fi", Slug: "sci-fi"}},
	}

	resp := FromTitleModel(title)
	assert.Equal(t, "The Matrix", resp.Name)
	assert.Equal(t, 7.5, *resp.Rating)
	assert.Equal(t, "film", resp.Category.Slug)
	assert.Equal(t, []GenreResponse{{Name: "Sci-Fi", Slug: "sci-fi"}}, resp.Genre)

	bare := FromTitleModel(models.Title{Name: "Untitled"})
	assert.Nil(t, bare.Category)
	assert.Nil(t, bare.Rating)
	assert.NotNil(t, bare.Genre)
}

func TestUpdateTitleDTO_ApplyTo(t *testing.T) {
	name := "New"
	title := models.Title{Name: "Old", Description: "kept"}

	UpdateTitleDTO{Name: &name}.ApplyTo(&title)
	assert.Equal(t, "New", title.Name)
	assert.Equal(t, "kept", title.Description)
}

func TestCreateTitleDTO_ToUpdate(t *testing.T) {
	upd := CreateTitleDTO{Name: "X"}.ToUpdate()
	assert.Equal(t, []string{}, *upd.Genre)
	assert.Equal(t, "", *upd.Category)
}

func TestUserDTOs(t *testing.T) {
	u := CreateUserDTO{Username: "bob", Email: "bob@example.com"}.ToModel()
	assert.Equal(t, models.RoleUser, u.Role)

	put := CreateUserDTO{Username: "bob", Email: "bob@example.com"}.ToUpdate()
	assert.Equal(t, "user", *put.Role)

	bio := "hi"
	UpdateUserDTO{Bio: &bio}.ApplyTo(&u)
	assert.Equal(t, "hi", u.Bio)
	assert.Equal(t, "bob", FromUserModel(u).Username)
}

func TestFromReviewModel(t *testing.T) {
	r := models.Review{ID: 1, Text: "great", Score: 9, Author: models.User{Username: "ann"}}
	resp := FromReviewModel(r)
	assert.Equal(t, "ann", resp.Author)
	assert.Equal(t, 9, resp.Score)

	c := FromCommentModel(models.Comment{ID: 2, ReviewID: 1, Text: "agree", Author: models.User{Username: "bob"}})
	assert.Equal(t, int64(1), c.Review)
	assert.Equal(t, "bob", c.Author)
}
