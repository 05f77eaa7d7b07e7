package hydration

// PublishedContractKey caches the latest published metadata of a contract or module
func PublishedContractKey(publisher, contractID string) QueryKey {
	return QueryKey{"publishedContract", publisher, contractID, "latest"}
}

// PublisherProfileKey caches a publisher profile
func PublisherProfileKey(publisher string) QueryKey {
	return QueryKey{"publisherProfile", publisher}
}
