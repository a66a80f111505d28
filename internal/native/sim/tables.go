package sim

// Library ids, shared by every variant.
const (
	LibSys    = 2
	LibBN     = 3
	LibRSA    = 4
	LibEVP    = 6
	LibBuf    = 7
	LibPEM    = 9
	LibX509   = 11
	LibASN1   = 13
	LibConf   = 14
	LibCrypto = 15
	LibEC     = 16
	LibSSL    = 20
	LibBIO    = 32
	LibPKCS7  = 33
	LibX509V3 = 34
	LibPKCS12 = 35
	LibRAND   = 36
	LibEngine = 38
	LibOCSP   = 39
	LibCMS    = 46
	LibKDF    = 52
	LibProv   = 57
)

// MaxLib is the largest library id a code can carry.
const MaxLib = 0xFF

// Reasons used by the backend itself and by tests.
const (
	ReasonMallocFailure      = 65
	ReasonPassedNullParam    = 67
	ReasonInternalError      = 68
	ReasonPEMNoStartLine     = 108
	ReasonPEMBadBase64       = 100
	ReasonBNInvalidLength    = 106
	ReasonBNNoInverse        = 108
	ReasonASN1HeaderTooLong  = 123
	ReasonASN1WrongTag       = 168
	ReasonEVPUnsupportedAlgo = 156
	ReasonRANDNotSeeded      = 100
	ReasonRANDEntropyFailed  = 117
	ReasonSSLWrongVersion    = 267
	ReasonBIONoSuchFile      = 128
	ReasonSysNoEnt           = 2
)

//nolint:gochecknoglobals // Static name tables, as compiled into the real library
var libNames = map[int]string{
	LibSys:    "system library",
	LibBN:     "bignum routines",
	LibRSA:    "rsa routines",
	LibEVP:    "digital envelope routines",
	LibBuf:    "memory buffer routines",
	LibPEM:    "PEM routines",
	LibX509:   "x509 certificate routines",
	LibASN1:   "asn1 encoding routines",
	LibConf:   "configuration file routines",
	LibCrypto: "common libcrypto routines",
	LibEC:     "elliptic curve routines",
	LibSSL:    "SSL routines",
	LibBIO:    "BIO routines",
	LibPKCS7:  "PKCS7 routines",
	LibX509V3: "X509 V3 routines",
	LibPKCS12: "PKCS12 routines",
	LibRAND:   "random number generator",
	LibEngine: "engine routines",
	LibOCSP:   "OCSP routines",
	LibCMS:    "CMS routines",
	LibKDF:    "KDF routines",
	LibProv:   "Provider routines",
}

type libReason struct {
	lib    int
	reason int
}

// Reasons registered under library 0 apply to every library.
//
//nolint:gochecknoglobals // Static name tables, as compiled into the real library
var reasonNames = map[libReason]string{
	{0, ReasonMallocFailure}:           "malloc failure",
	{0, ReasonPassedNullParam}:         "passed a null parameter",
	{0, ReasonInternalError}:           "internal error",
	{LibSys, ReasonSysNoEnt}:           "No such file or directory",
	{LibPEM, ReasonPEMNoStartLine}:     "no start line",
	{LibPEM, ReasonPEMBadBase64}:       "bad base64 decode",
	{LibBN, ReasonBNInvalidLength}:     "invalid length",
	{LibBN, ReasonBNNoInverse}:         "no inverse",
	{LibASN1, ReasonASN1HeaderTooLong}: "header too long",
	{LibASN1, ReasonASN1WrongTag}:      "wrong tag",
	{LibEVP, ReasonEVPUnsupportedAlgo}: "unsupported algorithm",
	{LibRAND, ReasonRANDNotSeeded}:     "PRNG not seeded",
	{LibRAND, ReasonRANDEntropyFailed}: "error retrieving entropy",
	{LibSSL, ReasonSSLWrongVersion}:    "wrong version number",
	{LibBIO, ReasonBIONoSuchFile}:      "no such file",
}

// Function ids, only meaningful for the 1.x code layout.
const (
	FuncBNDec2BN        = 144
	FuncBNModInverse    = 110
	FuncPEMReadBio      = 109
	FuncASN1GetObject   = 114
	FuncRANDBytes       = 100
	FuncDRBGGetEntropy  = 120
	FuncSSLGetRecord    = 143
	FuncBIONewFile      = 109
	FuncEVPDigestInitEx = 128
)

type libFunc struct {
	lib int
	fn  int
}

//nolint:gochecknoglobals // Static name tables, as compiled into the real library
var funcNames = map[libFunc]string{
	{LibBN, FuncBNDec2BN}:         "BN_dec2bn",
	{LibBN, FuncBNModInverse}:     "BN_mod_inverse",
	{LibPEM, FuncPEMReadBio}:      "PEM_read_bio",
	{LibASN1, FuncASN1GetObject}:  "ASN1_get_object",
	{LibRAND, FuncRANDBytes}:      "RAND_bytes",
	{LibRAND, FuncDRBGGetEntropy}: "rand_drbg_get_entropy",
	{LibSSL, FuncSSLGetRecord}:    "ssl3_get_record",
	{LibBIO, FuncBIONewFile}:      "BIO_new_file",
	{LibEVP, FuncEVPDigestInitEx}: "EVP_DigestInit_ex",
}
