package ascore

// SetOption configures opt on the connection. Setting OptionProtocolTCP
// or OptionProtocolUDS to true pins the transport, overriding the
// port==0-means-UDS inference Connect otherwise applies; setting
// either to false has no effect (there is no "unpin" operation, matching
// the base spec's boolean-set model).
func (c *Connection) SetOption(opt Option, value bool) {
	switch opt {
	case OptionPolling:
		c.options.polling = value
	case OptionRawScramble:
		c.options.rawScramble = value
	case OptionFoundRows:
		c.options.foundRows = value
	case OptionInteractive:
		c.options.interactive = value
	case OptionMultiStatements:
		c.options.multiStatements = value
	case OptionAuthPlugin:
		c.options.authPlugin = value
	case OptionProtocolTCP:
		if value {
			c.protocol = ProtocolTCP
		}
	case OptionProtocolUDS:
		if value {
			c.protocol = ProtocolUDS
		}
	default:
		// Unknown option: ignored, matching the original's default case.
	}
}

// GetOption reports the current value of opt.
func (c *Connection) GetOption(opt Option) bool {
	switch opt {
	case OptionPolling:
		return c.options.polling
	case OptionRawScramble:
		return c.options.rawScramble
	case OptionFoundRows:
		return c.options.foundRows
	case OptionInteractive:
		return c.options.interactive
	case OptionMultiStatements:
		return c.options.multiStatements
	case OptionAuthPlugin:
		return c.options.authPlugin
	case OptionProtocolTCP:
		return c.protocol == ProtocolTCP
	case OptionProtocolUDS:
		return c.protocol == ProtocolUDS
	default:
		return false
	}
}
