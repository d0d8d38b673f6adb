package script

// Opcode values. Names follow the conventional OP_ spelling.
const (
	OP_0                   byte = 0x00
	OP_DATA_20             byte = 0x14
	OP_DATA_32             byte = 0x20
	OP_DATA_33             byte = 0x21
	OP_DATA_65             byte = 0x41
	OP_PUSHDATA1           byte = 0x4c
	OP_PUSHDATA2           byte = 0x4d
	OP_PUSHDATA4           byte = 0x4e
	OP_1NEGATE             byte = 0x4f
	OP_RESERVED            byte = 0x50
	OP_1                   byte = 0x51
	OP_2                   byte = 0x52
	OP_3                   byte = 0x53
	OP_4                   byte = 0x54
	OP_5                   byte = 0x55
	OP_6                   byte = 0x56
	OP_7                   byte = 0x57
	OP_8                   byte = 0x58
	OP_9                   byte = 0x59
	OP_10                  byte = 0x5a
	OP_11                  byte = 0x5b
	OP_12                  byte = 0x5c
	OP_13                  byte = 0x5d
	OP_14                  byte = 0x5e
	OP_15                  byte = 0x5f
	OP_16                  byte = 0x60
	OP_NOP                 byte = 0x61
	OP_VER                 byte = 0x62
	OP_IF                  byte = 0x63
	OP_NOTIF               byte = 0x64
	OP_VERIF               byte = 0x65
	OP_VERNOTIF            byte = 0x66
	OP_ELSE                byte = 0x67
	OP_ENDIF               byte = 0x68
	OP_VERIFY              byte = 0x69
	OP_RETURN              byte = 0x6a
	OP_TOALTSTACK          byte = 0x6b
	OP_FROMALTSTACK        byte = 0x6c
	OP_2DROP               byte = 0x6d
	OP_2DUP                byte = 0x6e
	OP_3DUP                byte = 0x6f
	OP_2OVER               byte = 0x70
	OP_2ROT                byte = 0x71
	OP_2SWAP               byte = 0x72
	OP_IFDUP               byte = 0x73
	OP_DEPTH               byte = 0x74
	OP_DROP                byte = 0x75
	OP_DUP                 byte = 0x76
	OP_NIP                 byte = 0x77
	OP_OVER                byte = 0x78
	OP_PICK                byte = 0x79
	OP_ROLL                byte = 0x7a
	OP_ROT                 byte = 0x7b
	OP_SWAP                byte = 0x7c
	OP_TUCK                byte = 0x7d
	OP_CAT                 byte = 0x7e
	OP_SUBSTR              byte = 0x7f
	OP_LEFT                byte = 0x80
	OP_RIGHT               byte = 0x81
	OP_SIZE                byte = 0x82
	OP_INVERT              byte = 0x83
	OP_AND                 byte = 0x84
	OP_OR                  byte = 0x85
	OP_XOR                 byte = 0x86
	OP_EQUAL               byte = 0x87
	OP_EQUALVERIFY         byte = 0x88
	OP_RESERVED1           byte = 0x89
	OP_RESERVED2           byte = 0x8a
	OP_1ADD                byte = 0x8b
	OP_1SUB                byte = 0x8c
	OP_2MUL                byte = 0x8d
	OP_2DIV                byte = 0x8e
	OP_NEGATE              byte = 0x8f
	OP_ABS                 byte = 0x90
	OP_NOT                 byte = 0x91
	OP_0NOTEQUAL           byte = 0x92
	OP_ADD                 byte = 0x93
	OP_SUB                 byte = 0x94
	OP_MUL                 byte = 0x95
	OP_DIV                 byte = 0x96
	OP_MOD                 byte = 0x97
	OP_LSHIFT              byte = 0x98
	OP_RSHIFT              byte = 0x99
	OP_BOOLAND             byte = 0x9a
	OP_BOOLOR              byte = 0x9b
	OP_NUMEQUAL            byte = 0x9c
	OP_NUMEQUALVERIFY      byte = 0x9d
	OP_NUMNOTEQUAL         byte = 0x9e
	OP_LESSTHAN            byte = 0x9f
	OP_GREATERTHAN         byte = 0xa0
	OP_LESSTHANOREQUAL     byte = 0xa1
	OP_GREATERTHANOREQUAL  byte = 0xa2
	OP_MIN                 byte = 0xa3
	OP_MAX                 byte = 0xa4
	OP_WITHIN              byte = 0xa5
	OP_RIPEMD160           byte = 0xa6
	OP_SHA1                byte = 0xa7
	OP_SHA256              byte = 0xa8
	OP_HASH160             byte = 0xa9
	OP_HASH256             byte = 0xaa
	OP_CODESEPARATOR       byte = 0xab
	OP_CHECKSIG            byte = 0xac
	OP_CHECKSIGVERIFY      byte = 0xad
	OP_CHECKMULTISIG       byte = 0xae
	OP_CHECKMULTISIGVERIFY byte = 0xaf
	OP_NOP1                byte = 0xb0
	OP_CHECKLOCKTIMEVERIFY byte = 0xb1
	OP_CHECKSEQUENCEVERIFY byte = 0xb2
	OP_NOP4                byte = 0xb3
	OP_NOP5                byte = 0xb4
	OP_NOP6                byte = 0xb5
	OP_NOP7                byte = 0xb6
	OP_NOP8                byte = 0xb7
	OP_NOP9                byte = 0xb8
	OP_NOP10               byte = 0xb9
	OP_CHECKSIGADD         byte = 0xba
	OP_INVALIDOPCODE       byte = 0xff

	OP_FALSE = OP_0
	OP_TRUE  = OP_1
)

// opcodeNames maps every assigned opcode to its name. Unassigned values
// render as OP_UNKNOWN<n>.
var opcodeNames = map[byte]string{
	OP_0:                   "OP_0",
	OP_PUSHDATA1:           "OP_PUSHDATA1",
	OP_PUSHDATA2:           "OP_PUSHDATA2",
	OP_PUSHDATA4:           "OP_PUSHDATA4",
	OP_1NEGATE:             "OP_1NEGATE",
	OP_RESERVED:            "OP_RESERVED",
	OP_1:                   "OP_1",
	OP_2:                   "OP_2",
	OP_3:                   "OP_3",
	OP_4:                   "OP_4",
	OP_5:                   "OP_5",
	OP_6:                   "OP_6",
	OP_7:                   "OP_7",
	OP_8:                   "OP_8",
	OP_9:                   "OP_9",
	OP_10:                  "OP_10",
	OP_11:                  "OP_11",
	OP_12:                  "OP_12",
	OP_13:                  "OP_13",
	OP_14:                  "OP_14",
	OP_15:                  "OP_15",
	OP_16:                  "OP_16",
	OP_NOP:                 "OP_NOP",
	OP_VER:                 "OP_VER",
	OP_IF:                  "OP_IF",
	OP_NOTIF:               "OP_NOTIF",
	OP_VERIF:               "OP_VERIF",
	OP_VERNOTIF:            "OP_VERNOTIF",
	OP_ELSE:                "OP_ELSE",
	OP_ENDIF:               "OP_ENDIF",
	OP_VERIFY:              "OP_VERIFY",
	OP_RETURN:              "OP_RETURN",
	OP_TOALTSTACK:          "OP_TOALTSTACK",
	OP_FROMALTSTACK:        "OP_FROMALTSTACK",
	OP_2DROP:               "OP_2DROP",
	OP_2DUP:                "OP_2DUP",
	OP_3DUP:                "OP_3DUP",
	OP_2OVER:               "OP_2OVER",
	OP_2ROT:                "OP_2ROT",
	OP_2SWAP:               "OP_2SWAP",
	OP_IFDUP:               "OP_IFDUP",
	OP_DEPTH:               "OP_DEPTH",
	OP_DROP:                "OP_DROP",
	OP_DUP:                 "OP_DUP",
	OP_NIP:                 "OP_NIP",
	OP_OVER:                "OP_OVER",
	OP_PICK:                "OP_PICK",
	OP_ROLL:                "OP_ROLL",
	OP_ROT:                 "OP_ROT",
	OP_SWAP:                "OP_SWAP",
	OP_TUCK:                "OP_TUCK",
	OP_CAT:                 "OP_CAT",
	OP_SUBSTR:              "OP_SUBSTR",
	OP_LEFT:                "OP_LEFT",
	OP_RIGHT:               "OP_RIGHT",
	OP_SIZE:                "OP_SIZE",
	OP_INVERT:              "OP_INVERT",
	OP_AND:                 "OP_AND",
	OP_OR:                  "OP_OR",
	OP_XOR:                 "OP_XOR",
	OP_EQUAL:               "OP_EQUAL",
	OP_EQUALVERIFY:         "OP_EQUALVERIFY",
	OP_RESERVED1:           "OP_RESERVED1",
	OP_RESERVED2:           "OP_RESERVED2",
	OP_1ADD:                "OP_1ADD",
	OP_1SUB:                "OP_1SUB",
	OP_2MUL:                "OP_2MUL",
	OP_2DIV:                "OP_2DIV",
	OP_NEGATE:              "OP_NEGATE",
	OP_ABS:                 "OP_ABS",
	OP_NOT:                 "OP_NOT",
	OP_0NOTEQUAL:           "OP_0NOTEQUAL",
	OP_ADD:                 "OP_ADD",
	OP_SUB:                 "OP_SUB",
	OP_MUL:                 "OP_MUL",
	OP_DIV:                 "OP_DIV",
	OP_MOD:                 "OP_MOD",
	OP_LSHIFT:              "OP_LSHIFT",
	OP_RSHIFT:              "OP_RSHIFT",
	OP_BOOLAND:             "OP_BOOLAND",
	OP_BOOLOR:              "OP_BOOLOR",
	OP_NUMEQUAL:            "OP_NUMEQUAL",
	OP_NUMEQUALVERIFY:      "OP_NUMEQUALVERIFY",
	OP_NUMNOTEQUAL:         "OP_NUMNOTEQUAL",
	OP_LESSTHAN:            "OP_LESSTHAN",
	OP_GREATERTHAN:         "OP_GREATERTHAN",
	OP_LESSTHANOREQUAL:     "OP_LESSTHANOREQUAL",
	OP_GREATERTHANOREQUAL:  "OP_GREATERTHANOREQUAL",
	OP_MIN:                 "OP_MIN",
	OP_MAX:                 "OP_MAX",
	OP_WITHIN:              "OP_WITHIN",
	OP_RIPEMD160:           "OP_RIPEMD160",
	OP_SHA1:                "OP_SHA1",
	OP_SHA256:              "OP_SHA256",
	OP_HASH160:             "OP_HASH160",
	OP_HASH256:             "OP_HASH256",
	OP_CODESEPARATOR:       "OP_CODESEPARATOR",
	OP_CHECKSIG:            "OP_CHECKSIG",
	OP_CHECKSIGVERIFY:      "OP_CHECKSIGVERIFY",
	OP_CHECKMULTISIG:       "OP_CHECKMULTISIG",
	OP_CHECKMULTISIGVERIFY: "OP_CHECKMULTISIGVERIFY",
	OP_NOP1:                "OP_NOP1",
	OP_CHECKLOCKTIMEVERIFY: "OP_CHECKLOCKTIMEVERIFY",
	OP_CHECKSEQUENCEVERIFY: "OP_CHECKSEQUENCEVERIFY",
	OP_NOP4:                "OP_NOP4",
	OP_NOP5:                "OP_NOP5",
	OP_NOP6:                "OP_NOP6",
	OP_NOP7:                "OP_NOP7",
	OP_NOP8:                "OP_NOP8",
	OP_NOP9:                "OP_NOP9",
	OP_NOP10:               "OP_NOP10",
	OP_CHECKSIGADD:         "OP_CHECKSIGADD",
	OP_INVALIDOPCODE:       "OP_INVALIDOPCODE",
}
