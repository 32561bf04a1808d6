package repository

// Store bundles every repository over one shared DB handle.
type Store struct {
	Users    UserRepository
	Sellers  SellerRepository
	Shops    ShopRepository
	Products ProductRepository
	Orders   OrderRepository
}

func NewStore(db DB, opts Options) *Store {
	return &Store{
		Users:    NewUserRepository(db, opts),
		Sellers:  NewSellerRepository(db, opts),
		Shops:    NewShopRepository(db, opts),
		Products: NewProductRepository(db, opts),
		Orders:   NewOrderRepository(db, opts),
	}
}
