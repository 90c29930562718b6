package domain

// Keypair is a base58-encoded ed25519 key pair.
// Private keys are returned to the caller in cleartext and never persisted;
// the service holds no durable key store.
type Keypair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// TokenCollection is the result of creating a non-fungible collection
// on the ledger. The caller must retain both key pairs.
type TokenCollection struct {
	CollectionID  string  `json:"collectionId"`
	SupplyKey     Keypair `json:"supplyKey"`
	AdminKey      Keypair `json:"adminKey"`
	TransactionID string  `json:"transactionId"`
}

// MintedToken identifies one token instance within a collection.
type MintedToken struct {
	CollectionID  string `json:"collectionId"`
	SerialNumber  int64  `json:"serialNumber"`
	MetadataURI   string `json:"metadataUri"`
	TransactionID string `json:"transactionId"`
}
