package service

import (
	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/repository"
)

func pageOf(q dto.PageQuery) repository.Pagination {
	return repository.Pagination{Page: q.Page, PageSize: q.PageSize}.Normalize()
}

func paginate[M any, R any](list []M, convert func([]M) []R, p repository.Pagination, total int64) *dto.PaginatedResponse[R] {
	resp := dto.NewPaginatedResponse(convert(list), p.Page, p.PageSize, total)
	return &resp
}
