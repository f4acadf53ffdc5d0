// Package stockv1 holds the Go bindings for stock.proto.
package stockv1

type GetProductRequest struct {
	Id int64 `json:"id"`
}

func (x *GetProductRequest) GetId() int64 {
	if x == nil {
		return 0
	}
	return x.Id
}

type Product struct {
	Id    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int32  `json:"stock"`
}

type GetProductsByIdsRequest struct {
	Ids []int64 `json:"ids"`
}

func (x *GetProductsByIdsRequest) GetIds() []int64 {
	if x == nil {
		return nil
	}
	return x.Ids
}

type GetProductsByIdsResponse struct {
	Products []*Product `json:"products"`
}

type CheckAvailabilityRequest struct {
	ProductId int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

func (x *CheckAvailabilityRequest) GetProductId() int64 {
	if x == nil {
		return 0
	}
	return x.ProductId
}

func (x *CheckAvailabilityRequest) GetQuantity() int32 {
	if x == nil {
		return 0
	}
	return x.Quantity
}

type CheckAvailabilityResponse struct {
	Available      bool   `json:"available"`
	AvailableStock int32  `json:"availableStock"`
	Price          string `json:"price"`
	Message        string `json:"message"`
}

type StockChangeRequest struct {
	ProductId int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

func (x *StockChangeRequest) GetProductId() int64 {
	if x == nil {
		return 0
	}
	return x.ProductId
}

func (x *StockChangeRequest) GetQuantity() int32 {
	if x == nil {
		return 0
	}
	return x.Quantity
}

type StockChangeResponse struct {
	ProductId int64 `json:"productId"`
	Stock     int32 `json:"stock"`
}
