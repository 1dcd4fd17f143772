package mapper

import (
	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/model"
)

type ProductMapper struct{}

func NewProductMapper() *ProductMapper {
	return &ProductMapper{}
}

func (m *ProductMapper) ToEntity(p *model.Product) *entity.Product {
	if p == nil {
		return nil
	}
	return &entity.Product{
		Id:          p.Id,
		ProductCode: p.ProductCode,
		Name:        p.Name,
		Options:     jsonToMap(p.Options),
	}
}

func (m *ProductMapper) ToModel(p *entity.Product) *model.Product {
	if p == nil {
		return nil
	}
	return &model.Product{
		Id:          p.Id,
		ProductCode: p.ProductCode,
		Name:        p.Name,
		Options:     mapToJSON(p.Options),
	}
}
