package db

type Database interface {
	Users() UserService
	Stores() StoreService
	Experiments() ExperimentService
	Variants() VariantService
	Tokens() TokenService
}
