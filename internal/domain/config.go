package domain

// KeyPrefix namespaces every key linkdex writes to the KV store.
const KeyPrefix = "linkdex:"
