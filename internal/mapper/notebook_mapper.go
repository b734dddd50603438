package mapper

import (
	"notebook-ai-be/internal/entity"
	"notebook-ai-be/internal/model"
)

type NotebookMapper struct{}

func NewNotebookMapper() *NotebookMapper {
	return &NotebookMapper{}
}

func (m *NotebookMapper) ToEntity(n *model.Notebook) *entity.Notebook {
	if n == nil {
		return nil
	}
	return &entity.Notebook{
		Id:        n.Id,
		Name:      n.Name,
		UserId:    n.UserId,
		CreatedAt: n.CreatedAt,
		UpdatedAt: nonZeroTime(n.UpdatedAt),
		DeletedAt: deletedAtPtr(n.DeletedAt),
		IsDeleted: n.DeletedAt.Valid,
	}
}

func (m *NotebookMapper) ToModel(n *entity.Notebook) *model.Notebook {
	if n == nil {
		return nil
	}
	return &model.Notebook{
		Id:        n.Id,
		Name:      n.Name,
		UserId:    n.UserId,
		CreatedAt: n.CreatedAt,
		UpdatedAt: derefTime(n.UpdatedAt),
		DeletedAt: toDeletedAt(n.DeletedAt, n.IsDeleted),
	}
}

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: nonZeroTime(u.UpdatedAt),
		DeletedAt: deletedAtPtr(u.DeletedAt),
		IsDeleted: u.DeletedAt.Valid,
	}
}
