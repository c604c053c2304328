package consensus

// Round flow:
//
//	Initiate(proposal)
//	     |
//	     v
//	+---------+   CastVote (while height <= end)   +-----------+
//	|  Open   | --------------------------------->  |  Open     |
//	+---------+                                     +-----------+
//	     |                                               |
//	     | (height > end)                                |
//	     v                                               v
//	Finalize: votesFor*100 >= QUORUM_PERCENT * |active set now|
//	     |
//	     +--> approved / not approved  (reported to the caller,
//	          which applies it to the proposal lifecycle)
//
// The engine is passive: nothing here ticks on its own. The surrounding
// environment advances the height clock and calls Finalize once the
// voting period has passed.
