package phpxx

const (
	lowestPrec = iota
	precSum
	precProduct
)

var precedences = map[TokenType]int{
	tokenPlus:     precSum,
	tokenMinus:    precSum,
	tokenAsterisk: precProduct,
	tokenSlash:    precProduct,
}
