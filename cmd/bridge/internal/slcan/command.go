package slcan

type CommandType int

const (
	CommandUnknown CommandType = iota
	CommandOpen
	CommandClose
	CommandTransmit
	CommandVersion
	CommandBitrate
)

// Replies written back to the client after a command.
const (
	ReplyOK          = "\r"
	ReplyError       = "\a"
	ReplyVersion     = "V0101\r"
	ReplyTransmitted = "z\r"
)

type Command struct {
	Type CommandType
	Raw  string
}

func ParseCommand(raw string) Command {
	if raw == "" {
		return Command{Type: CommandUnknown, Raw: raw}
	}

	switch raw[0] {
	case 'O':
		return Command{Type: CommandOpen, Raw: raw}
	case 'C':
		return Command{Type: CommandClose, Raw: raw}
	case 't', 'T', 'r', 'R':
		return Command{Type: CommandTransmit, Raw: raw}
	case 'V', 'v':
		return Command{Type: CommandVersion, Raw: raw}
	case 'S', 's':
		return Command{Type: CommandBitrate, Raw: raw}
	default:
		return Command{Type: CommandUnknown, Raw: raw}
	}
}

// Reply is the response to a command that was accepted. Rejected commands
// are answered with ReplyError.
func (c Command) Reply() string {
	switch c.Type {
	case CommandOpen, CommandClose, CommandBitrate:
		return ReplyOK
	case CommandVersion:
		return ReplyVersion
	case CommandTransmit:
		return ReplyTransmitted
	default:
		return ReplyError
	}
}
