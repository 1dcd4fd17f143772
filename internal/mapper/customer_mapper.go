package mapper

import (
	"encoding/json"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/model"

	"gorm.io/datatypes"
)

type CustomerMapper struct {
	subscriptionMapper *SubscriptionMapper
}

func NewCustomerMapper() *CustomerMapper {
	return &CustomerMapper{
		subscriptionMapper: NewSubscriptionMapper(),
	}
}

func (m *CustomerMapper) ToEntity(c *model.Customer) *entity.Customer {
	if c == nil {
		return nil
	}
	return &entity.Customer{
		Id:             c.Id,
		Uid:            c.Uid,
		AdditionalData: jsonToMap(c.AdditionalData),
		Subscriptions:  m.subscriptionMapper.ToEntities(c.Subscriptions),
	}
}

func (m *CustomerMapper) ToModel(c *entity.Customer) *model.Customer {
	if c == nil {
		return nil
	}
	return &model.Customer{
		Id:             c.Id,
		Uid:            c.Uid,
		AdditionalData: mapToJSON(c.AdditionalData),
	}
}

func jsonToMap(data datatypes.JSON) map[string]interface{} {
	if len(data) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func mapToJSON(data map[string]interface{}) datatypes.JSON {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
