package nativenames

// Names of all native contracts.
const (
	TestNFT          = "TestNFT"
	ERC20Factory     = "ERC20Factory"
	FractionalizeNFT = "FractionalizeNFT"
)

// IsValid checks that the name is a valid native contract's name.
func IsValid(name string) bool {
	return name == TestNFT ||
		name == ERC20Factory ||
		name == FractionalizeNFT
}
