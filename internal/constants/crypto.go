package constants

// TokenByteSize is the number of random bytes used to generate auth tokens
const TokenByteSize = 24

// PasswordSaltByteSize is the number of random bytes used for password salts
const PasswordSaltByteSize = 16

// RequestIDByteSize is the number of random bytes used to generate request IDs
const RequestIDByteSize = 16

// GeneratedPasswordByteSize is the number of random bytes behind seeded admin passwords
const GeneratedPasswordByteSize = 18

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 5
